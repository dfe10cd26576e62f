// Package sqlite implements the repository interfaces on top of SQLite.
//
// It uses modernc.org/sqlite, a pure Go port, so the binary needs no C
// toolchain. Referential integrity, uniqueness and the self-follow rule are
// all declared in the schema; the Go code only translates the resulting
// constraint errors into apperror values.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/foodgram.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
//
// The pool is limited to one connection. SQLite allows a single writer
// anyway, and an in-memory database only exists on the connection that
// created it.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; cascades depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
				username      TEXT NOT NULL,
				first_name    TEXT NOT NULL DEFAULT '',
				last_name     TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				is_admin      INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"tags", `
			CREATE TABLE IF NOT EXISTS tags (
				id    INTEGER PRIMARY KEY AUTOINCREMENT,
				name  TEXT NOT NULL UNIQUE,
				color TEXT NOT NULL UNIQUE,
				slug  TEXT NOT NULL UNIQUE
			);`},
		{"ingredients", `
			CREATE TABLE IF NOT EXISTS ingredients (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				name             TEXT NOT NULL,
				measurement_unit TEXT NOT NULL
			);`},
		{"recipes", `
			CREATE TABLE IF NOT EXISTS recipes (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				author_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name         TEXT NOT NULL,
				text         TEXT NOT NULL,
				image        TEXT NOT NULL,
				cooking_time INTEGER NOT NULL CHECK (cooking_time > 0),
				pub_date     DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_recipes_pub_date ON recipes(pub_date);
			CREATE INDEX IF NOT EXISTS idx_recipes_author_id ON recipes(author_id);`},
		{"recipe_ingredients", `
			CREATE TABLE IF NOT EXISTS recipe_ingredients (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				recipe_id     INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				ingredient_id INTEGER NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
				amount        INTEGER NOT NULL CHECK (amount BETWEEN 1 AND 32767),
				UNIQUE (recipe_id, ingredient_id)
			);`},
		{"recipe_tags", `
			CREATE TABLE IF NOT EXISTS recipe_tags (
				recipe_id INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				tag_id    INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (recipe_id, tag_id)
			);`},
		{"favorites", `
			CREATE TABLE IF NOT EXISTS favorites (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id  INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, recipe_id)
			);`},
		{"purchases", `
			CREATE TABLE IF NOT EXISTS purchases (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipe_id  INTEGER NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, recipe_id)
			);`},
		// The self-follow rule lives here and nowhere else.
		{"follows", `
			CREATE TABLE IF NOT EXISTS follows (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				author_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (user_id, author_id),
				CHECK (user_id <> author_id)
			);
			CREATE INDEX IF NOT EXISTS idx_follows_author_id ON follows(author_id);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise.
//
// WHY A TRANSACTION FOR RECIPE WRITES?
// A recipe is three tables: the recipe row, its ingredient amounts and its
// tag links. Updating one means "delete every association, insert the new
// ones". Without a transaction a reader could observe a recipe with no
// ingredients between the two steps, and a failure halfway (an unknown
// ingredient id, say) would leave the recipe stripped. Inside withTx the
// whole replacement commits or none of it does.
//
// fn must only use tx, never db.conn: the pool has a single connection and
// the transaction already holds it, so a query on db.conn would block
// forever.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

type constraintKind int

const (
	noConstraint constraintKind = iota
	uniqueViolation
	checkViolation
	foreignKeyViolation
)

// constraintViolation reports which kind of constraint err violated, if any,
// together with the driver message (e.g. "UNIQUE constraint failed: tags.slug").
//
// CONSTRAINTS ARE THE SOURCE OF TRUTH
// Uniqueness (one favorite per user and recipe, one follow per pair) and the
// self-follow ban live only in the schema. The services do not check them
// first and race the database; they insert and let the callers below
// translate the violation into a field-level AppError. Amount and cooking
// time ranges are checked by the services as well, and the CHECKs catch
// anything that slips past them. The
// message text is the only place SQLite names the failing column, which is
// why the callers match on it.
func constraintViolation(err error) (constraintKind, string) {
	var sqlErr *moderncsqlite.Error
	if !errors.As(err, &sqlErr) {
		return noConstraint, ""
	}
	// The low byte is the primary result code; extended codes add detail above it.
	if sqlErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return noConstraint, ""
	}

	msg := sqlErr.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return uniqueViolation, msg
	case strings.Contains(msg, "CHECK constraint failed"):
		return checkViolation, msg
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return foreignKeyViolation, msg
	}
	return noConstraint, msg
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// accountGone explains a FOREIGN KEY failure on a user_id column. SQLite
// does not say which reference was dangling, so the caller's row is looked
// up: when it is missing the request came from a deleted account and
// apperror.Unauthorized is returned. Otherwise it returns nil and the caller
// blames the other reference.
func accountGone(ctx context.Context, q queryRower, userID model.UserID) error {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, int64(userID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking user %d: %w", userID, err)
	}
	if !exists {
		return apperror.Unauthorized("account no longer exists")
	}
	return nil
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idArgs converts typed identifiers into query arguments.
func idArgs[T ~int64](ids []T) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return args
}
