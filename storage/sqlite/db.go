// Package sqlite implements storage.RecordSource over a SQLite database
// (modernc.org/sqlite, no cgo) and imports records into it from any other
// RecordSource.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// ErrPathRequired is returned when no database path is given.
var ErrPathRequired = errors.New("database path required")

// DB wraps the connection pool of one database file.
type DB struct {
	Pool   *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite wants a single writer
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	db := &DB{
		Pool:   pool,
		path:   path,
		logger: slog.Default().With("component", "sqlite", "path", path),
	}
	if err := db.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return db, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Close closes the connection pool.
func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// Migrate brings the schema up to the current version.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	statements := []string{`
CREATE TABLE IF NOT EXISTS jobs (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  location_id TEXT NOT NULL DEFAULT '',
  remote TEXT NOT NULL DEFAULT '',
  overview TEXT NOT NULL DEFAULT '',
  responsibilities TEXT NOT NULL DEFAULT '',
  qualifications TEXT NOT NULL DEFAULT '',
  optional_qualifications TEXT NOT NULL DEFAULT '',
  benefits TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT '',
  is_open TEXT NOT NULL DEFAULT '',
  salary_min TEXT NOT NULL DEFAULT '',
  salary_max TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS companies (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  industry TEXT NOT NULL DEFAULT '',
  focus TEXT NOT NULL DEFAULT '',
  details TEXT NOT NULL DEFAULT '',
  size TEXT NOT NULL DEFAULT '',
  stage TEXT NOT NULL DEFAULT '',
  funding TEXT NOT NULL DEFAULT '',
  founded_year TEXT NOT NULL DEFAULT '',
  headquarters_id TEXT NOT NULL DEFAULT '',
  website TEXT NOT NULL DEFAULT ''
);`, `
CREATE TABLE IF NOT EXISTS locations (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT ''
);`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_company ON jobs(company);`,
		`CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(lower(name));`,
		`CREATE INDEX IF NOT EXISTS idx_locations_id ON locations(id);`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}

	d.logger.Info("applied schema", "version", 1)
	return tx.Commit()
}
