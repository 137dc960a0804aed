// Package storage owns the embedded SQLite database holding kanji
// knowledge, kanji SRS state, review logs and word records.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/conorfennell/immerse/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries exposes table-level access. It runs either directly on the
// database or inside a transaction started by DB.InTx.
type Queries struct {
	q querier
}

// DB represents a wrapper around the SQL database connection.
type DB struct {
	*Queries
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeErr("open database", err)
	}

	// One writer, one connection. This also keeps ":memory:" databases
	// from splitting across pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storeErr("connect to database", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storeErr("apply schema", err)
	}

	return &DB{Queries: &Queries{q: db}, conn: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return storeErr(fmt.Sprintf("apply pragma %q", p), err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InTx runs fn inside a transaction, committing if fn returns nil.
func (db *DB) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	if err := fn(&Queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, storeErr("rollback", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// Wipe deletes all SRS state and review logs.
func (db *DB) Wipe(ctx context.Context) error {
	return db.InTx(ctx, func(q *Queries) error {
		return q.exec(ctx, "wipe srs", "DELETE FROM srs", "DELETE FROM revlog")
	})
}

// WipeAll deletes every row of every table.
func (db *DB) WipeAll(ctx context.Context) error {
	return db.InTx(ctx, func(q *Queries) error {
		return q.exec(ctx, "wipe all", "DELETE FROM srs", "DELETE FROM revlog", "DELETE FROM kanji", "DELETE FROM words")
	})
}

func (q *Queries) exec(ctx context.Context, op string, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := q.q.ExecContext(ctx, stmt); err != nil {
			return storeErr(op, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. IMMERSE_DB environment variable
// 2. $XDG_DATA_HOME/immerse/immerse.db
// 3. ~/.local/share/immerse/immerse.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("IMMERSE_DB"); p != "" {
		return p, nil
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "immerse", "immerse.db"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}

func decodeKanji(column, s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, &domain.SerializationError{Column: column, Value: s, Err: errors.New("not a single character")}
	}
	return r, nil
}

func decodeState(column string, v int64) (domain.State, error) {
	s := domain.State(v)
	if !s.Valid() {
		return 0, &domain.SerializationError{Column: column, Value: v, Err: errors.New("unknown state tag")}
	}
	return s, nil
}

func decodeRating(column string, v int64) (domain.Rating, error) {
	r := domain.Rating(v)
	if !r.Valid() {
		return 0, &domain.SerializationError{Column: column, Value: v, Err: errors.New("unknown rating")}
	}
	return r, nil
}

func notFound(what string, key any) error {
	return fmt.Errorf("%s %v: %w", what, key, domain.ErrNotFound)
}

// limitArg maps a non-positive limit to SQLite's "no limit".
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
