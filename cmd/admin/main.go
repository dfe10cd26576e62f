// Command admin manages accounts for the foodgram API, which has no
// registration or login endpoints of its own.
//
//	admin create-user --email a@b.c --username ann --password secret123 [--first-name Ann] [--last-name Lee] [--admin]
//	admin delete-user --id 7
//	admin token --email a@b.c --password secret123
//
// It reads the same environment (and .env file) as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/model"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
	"github.com/sakif/foodgram/internal/validation"
)

const usage = `usage: admin <command> [flags]

commands:
  create-user   create an account
  delete-user   delete an account and everything it owns
  token         print an API token for an existing account
`

// errUsage marks mistakes in the command line itself.
var errUsage = errors.New("usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "admin:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout carries command output such as tokens; logs go to stderr.
	logger := cfg.NewLoggerTo(stderr)

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	accounts := service.NewAccountService(db, tokens, auth.NewPasswordService(), validation.New(), logger)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-user":
		return createUser(ctx, accounts, rest, stdout, stderr)
	case "delete-user":
		return deleteUser(ctx, accounts, rest, stdout, stderr)
	case "token":
		return issueToken(ctx, accounts, rest, stdout, stderr)
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
	return errUsage
}

func createUser(ctx context.Context, accounts *service.AccountService, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var in service.NewUser
	fs.StringVar(&in.Email, "email", "", "login email (required)")
	fs.StringVar(&in.Username, "username", "", "public username (required)")
	fs.StringVar(&in.FirstName, "first-name", "", "first name")
	fs.StringVar(&in.LastName, "last-name", "", "last name")
	fs.StringVar(&in.Password, "password", "", "password, 8 to 72 bytes (required)")
	fs.BoolVar(&in.IsAdmin, "admin", false, "may edit and delete any recipe")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	u, err := accounts.CreateUser(ctx, in)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(stdout, "created user %d (%s)\n", u.ID, u.Email)
	return nil
}

func deleteUser(ctx context.Context, accounts *service.AccountService, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Int64("id", 0, "user id (required)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *id <= 0 {
		fmt.Fprintln(stderr, "delete-user: --id is required")
		return errUsage
	}

	if err := accounts.DeleteUser(ctx, model.UserID(*id)); err != nil {
		return describe(err)
	}
	fmt.Fprintf(stdout, "deleted user %d\n", *id)
	return nil
}

func issueToken(ctx context.Context, accounts *service.AccountService, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "login email (required)")
	password := fs.String("password", "", "password (required)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	token, _, err := accounts.IssueToken(ctx, *email, *password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintln(stdout, token)
	return nil
}
