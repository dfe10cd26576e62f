package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, username, first_name, last_name, password_hash, is_admin, created_at`

// CreateUser inserts a new account and sets its ID and CreatedAt.
// A second account with the same email (case-insensitive) is a conflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, username, first_name, last_name, password_hash, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt,
	)
	if err != nil {
		if kind, _ := constraintViolation(err); kind == uniqueViolation {
			return apperror.Duplicate("email", "a user with this email already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = model.UserID(id)
	return nil
}

// GetUserByID retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id model.UserID) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, int64(id))

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(int64(id), 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user not found with email %s", email),
			}
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns every user ordered by id.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UserExists reports whether an account with id is still present. The auth
// middleware calls it on every authenticated request.
func (db *DB) UserExists(ctx context.Context, id model.UserID) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, int64(id)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user %d: %w", id, err)
	}
	return exists, nil
}

// DeleteUser removes the account. Recipes, favorites, purchases and follows
// in either direction go with it through ON DELETE CASCADE.
func (db *DB) DeleteUser(ctx context.Context, id model.UserID) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", strconv.FormatInt(int64(id), 10))
	}
	return nil
}

// rowScanner is the part of *sql.Row and *sql.Rows that scanUser needs.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u  model.User
		id int64
	)
	if err := s.Scan(
		&id,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	u.ID = model.UserID(id)
	return &u, nil
}
