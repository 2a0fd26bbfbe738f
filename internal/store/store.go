package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/inkwell/internal/notes"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added partial index on notes(deleted_at) for trash/purge scans
const currentSchemaVersion = 1

// defaultWALAutocheckpoint is the SQLite default frame count.
const defaultWALAutocheckpoint = 1000

// Store provides durable storage for notes, tags, and their associations.
// Uses SQLite with WAL mode; the fts_notes full-text mirror is maintained
// by triggers inside the same transaction as every notes mutation.
//
// The store assumes single-writer access: it is owned by the storage worker
// and must not be shared across mutating goroutines. Optimistic version
// checks (see UpdateNote) protect against stale caller state, not against
// concurrent writers.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store at open time.
type Option func(*options)

type options struct {
	walAutocheckpoint int
	now               func() time.Time
}

// WithWALAutocheckpoint sets the WAL frame count before an automatic
// checkpoint. Zero or negative keeps the SQLite default.
func WithWALAutocheckpoint(frames int) Option {
	return func(o *options) {
		if frames > 0 {
			o.walAutocheckpoint = frames
		}
	}
}

// WithClock overrides the wall clock. Used by tests to make created_at,
// updated_at, and deleted_at deterministic.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		walAutocheckpoint: defaultWALAutocheckpoint,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, mapSQLiteErr(fmt.Errorf("connect database: %w", err))
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o.walAutocheckpoint); err != nil {
		db.Close()
		return nil, mapSQLiteErr(fmt.Errorf("apply pragmas: %w", err))
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, mapSQLiteErr(fmt.Errorf("apply schema: %w", err))
	}

	return &Store{db: db, now: o.now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Query executes a read query and returns the resulting rows.
// Used by the search engine; callers must close the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	return rows, nil
}

// Checkpoint forces a WAL checkpoint, truncating the log. The worker runs
// this periodically between requests, never inside a caller transaction.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return mapSQLiteErr(fmt.Errorf("wal checkpoint: %w", err))
	}
	return nil
}

// RebuildIndex regenerates the full-text mirror from the notes table.
// The index is derived state; this is the recovery path if it ever drifts.
func (s *Store) RebuildIndex(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "INSERT INTO fts_notes(fts_notes) VALUES ('rebuild')"); err != nil {
		return mapSQLiteErr(fmt.Errorf("rebuild index: %w", err))
	}
	return nil
}

// begin starts a write transaction.
func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapSQLiteErr(fmt.Errorf("begin tx: %w", err))
	}
	return tx, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, walAutocheckpoint int) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA wal_autocheckpoint = %d", walAutocheckpoint),
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds an index on deleted_at so trash listing and retention
// purges don't scan the whole notes table.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notes_deleted_at
		ON notes(deleted_at) WHERE deleted_at IS NOT NULL
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// mapSQLiteErr translates driver-level failures into the structured error
// taxonomy. Non-sqlite errors pass through unchanged.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return &notes.Error{
				Code:    notes.ErrCodeStorageContended,
				Message: "database is locked by another process",
				Err:     err,
			}
		case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
			return &notes.Error{
				Code:    notes.ErrCodeCorruption,
				Message: "database file is unreadable",
				Err:     err,
			}
		}
	}

	// The driver can wrap lock contention in plain errors on some paths,
	// so keep a substring check as a fallback.
	if strings.Contains(err.Error(), "database is locked") {
		return &notes.Error{
			Code:    notes.ErrCodeStorageContended,
			Message: "database is locked by another process",
			Err:     err,
		}
	}

	return err
}
