package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version.
//
//	1 - runs, points, parameters, histograms, bins, bin_values
const schemaVersion = 1

// connPragmas are applied to the single connection on open.
var connPragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// Store saves finished scan tables and reads them back.
type Store struct {
	db    *sql.DB
	ids   RunIDGenerator
	clock func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRunIDGenerator sets the generator for new run IDs.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock sets the time source for run creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.clock = now }
}

// Open opens the run database at path, creating it and its tables when
// missing. ":memory:" gives a private database that lives as long as the
// Store. A database written by a newer schema version is rejected.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer, and ":memory:" is
	// per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("database %s: %w", path, err)
	}

	s := &Store{db: db, ids: UUIDv7Generator{}, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func initialize(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range connPragmas {
		if _, err := db.Exec("PRAGMA " + p.name + " = " + p.value); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	return migrate(db)
}

// migrate creates the schema inside one transaction and stamps its version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying handle for ad hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// verifyPragma reports an error unless the pragma reads back as expected.
func (s *Store) verifyPragma(ctx context.Context, name, expected string) error {
	var value string
	if err := s.db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
