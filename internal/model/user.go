// Package model defines the data structures used throughout the application.
//
// Every entity has its own identifier type so a recipe id can never be passed
// where a user id is expected. Identifiers are positive; zero means "unset"
// (for UserID it also means "anonymous viewer").
package model

import "time"

// UserID identifies a registered account.
type UserID int64

// User is a registered account. Email is the login identifier and is unique.
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}
