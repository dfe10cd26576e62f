// Package auth verifies and mints API tokens and hashes passwords.
//
// The HTTP API never issues tokens itself. An operator mints them with
// cmd/admin; clients send them back as
//
//	Authorization: Bearer <jwt>
//	Authorization: Token <jwt>
//
// or in a "token" cookie. A token is an HS256 JWT whose subject is the
// decimal user id:
//
//	{"iss":"foodgram","sub":"42","jti":"<xid>","iat":...,"exp":...}
//
// Verification needs only the shared secret, no database lookup.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/foodgram/internal/model"
)

const issuer = "foodgram"

// MinSecretLen is the shortest accepted HMAC secret.
const MinSecretLen = 16

// ErrTokenExpired is returned by Validate for a well-formed token past its
// expiry, so callers can tell it apart from a forged one.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies JWTs with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. ttl is the lifetime Generate
// gives new tokens.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLen)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for userID valid for the service's lifetime.
func (s *TokenService) Generate(userID model.UserID) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. A negative d
// yields an already expired token, which tests rely on.
func (s *TokenService) GenerateWithDuration(userID model.UserID, d time.Duration) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("auth: cannot issue a token for user id %d", userID)
	}
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(int64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the user id in its subject.
//
// The signature, expiry, issuer and algorithm are all checked.
// jwt.WithValidMethods pins HS256 so a token claiming "alg":"none" (or an
// asymmetric algorithm keyed with our secret) is rejected.
func (s *TokenService) Validate(tokenStr string) (model.UserID, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, errors.New("auth: invalid token claims")
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}
	return model.UserID(id), nil
}
