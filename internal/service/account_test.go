package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/validation"
)

func newTestAccountService(t *testing.T) (*AccountService, *fakeStore, *auth.TokenService) {
	t.Helper()
	store := newFakeStore()
	tokens, err := auth.NewTokenService("account-test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc := NewAccountService(store, tokens, auth.NewPasswordServiceWithCost(4), validation.New(), discardLogger())
	return svc, store, tokens
}

func validNewUser() NewUser {
	return NewUser{
		Email:     "cook@example.com",
		Username:  "cook",
		FirstName: "Ada",
		LastName:  "Cook",
		Password:  "s3cret-password",
	}
}

func TestCreateUser(t *testing.T) {
	svc, store, _ := newTestAccountService(t)

	u, err := svc.CreateUser(context.Background(), validNewUser())
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if u.ID == 0 {
		t.Fatal("CreateUser() did not set ID")
	}
	stored := store.users[u.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "s3cret-password" {
		t.Errorf("password stored as %q, want a bcrypt hash", stored.PasswordHash)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*NewUser)
		wantField string
	}{
		{"bad email", func(u *NewUser) { u.Email = "nope" }, "email"},
		{"missing username", func(u *NewUser) { u.Username = " " }, "username"},
		{"username with spaces", func(u *NewUser) { u.Username = "two words" }, "username"},
		{"short password", func(u *NewUser) { u.Password = "short" }, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestAccountService(t)
			in := validNewUser()
			tt.mutate(&in)

			_, err := svc.CreateUser(context.Background(), in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("CreateUser() error = %v, want ErrValidation", err)
			}
			if got := appErrField(err); got != tt.wantField {
				t.Errorf("CreateUser() field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAccountService(t)
	if _, err := svc.CreateUser(context.Background(), validNewUser()); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	again := validNewUser()
	again.Email = "COOK@example.com"
	again.Username = "other"
	if _, err := svc.CreateUser(context.Background(), again); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

func TestIssueToken(t *testing.T) {
	svc, _, tokens := newTestAccountService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, validNewUser())
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	token, got, err := svc.IssueToken(ctx, "cook@example.com", "s3cret-password")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("IssueToken() user = %d, want %d", got.ID, u.ID)
	}
	id, err := tokens.Validate(token)
	if err != nil || id != u.ID {
		t.Errorf("issued token validates to (%d, %v), want (%d, nil)", id, err, u.ID)
	}

	for _, tc := range []struct{ email, password string }{
		{"cook@example.com", "wrong-password"},
		{"ghost@example.com", "s3cret-password"},
	} {
		if _, _, err := svc.IssueToken(ctx, tc.email, tc.password); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("IssueToken(%s, %s) error = %v, want ErrUnauthorized", tc.email, tc.password, err)
		}
	}
}

func TestDeleteUser(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()
	author := store.addUser("author", false)
	reader := store.addUser("reader", false)
	r := store.addRecipe(author, "soup")
	_ = store.AddToCollection(ctx, model.Favorites, reader.ID, r.ID)

	if err := svc.DeleteUser(ctx, author.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if len(store.recipes) != 0 {
		t.Error("recipes of deleted user remain")
	}
	if err := svc.DeleteUser(ctx, author.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want ErrNotFound", err)
	}
}
