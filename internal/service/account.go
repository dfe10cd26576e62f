package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

// AccountService manages accounts and credentials. The HTTP API has no
// registration or login endpoints; cmd/admin drives this service.
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	validate *validator.Validate,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validate:  validate,
		logger:    logger,
	}
}

// NewUser is the input for CreateUser.
type NewUser struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	IsAdmin   bool   `json:"is_admin"`
}

// CreateUser validates in, hashes the password and stores the account.
// A taken email is a conflict on "email".
func (s *AccountService) CreateUser(ctx context.Context, in NewUser) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		logFailure(s.logger, "failed to create user", err, slog.String("email", in.Email))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created",
		slog.Int64("user_id", int64(user.ID)),
		slog.String("username", user.Username),
		slog.Bool("admin", user.IsAdmin),
	)
	return user, nil
}

// DeleteUser removes the account together with its recipes, favorites,
// purchases and follows.
func (s *AccountService) DeleteUser(ctx context.Context, id model.UserID) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		logFailure(s.logger, "failed to delete user", err, slog.Int64("user_id", int64(id)))
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	s.logger.Info("user deleted", slog.Int64("user_id", int64(id)))
	return nil
}

// IssueToken checks the email/password pair and mints an API token.
// Unknown emails and wrong passwords yield the same Unauthorized error.
func (s *AccountService) IssueToken(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil, apperror.Unauthorized("invalid email or password")
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return "", nil, apperror.Unauthorized("invalid email or password")
		}
		return "", nil, fmt.Errorf("verifying password: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("token issued", slog.Int64("user_id", int64(user.ID)))
	return token, user, nil
}
