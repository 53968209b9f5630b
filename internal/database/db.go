// Package database stores user-defined calendars and their holiday overrides.
//
// The schema has two tables: calendars, one row per stored calendar naming
// its base, and calendar_holidays, the dated add/remove overrides of each
// calendar. Overrides are deleted with their calendar, which relies on
// SQLite foreign keys being enabled on every connection.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
)

// =============================================================================
// Calendar Store
// =============================================================================

// DB is the calendar store: a SQLite handle plus the store's queries.
type DB struct {
	*sql.DB
	logger *slog.Logger
	path   string
}

// Config holds calendar store connection options.
type Config struct {
	Path            string        // SQLite file, or ":memory:"
	MaxOpenConns    int           // Keep at 1: SQLite has a single writer
	MaxIdleConns    int           // Idle connections kept open
	ConnMaxLifetime time.Duration // Recycle connections after this long
}

// DefaultConfig returns the settings used by the server, the CLI and the
// import tool. One connection serialises writes, and WAL mode (set in the
// DSN) still lets readers run while an import is writing.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}
}

// dsn adds the pragmas the store depends on. _foreign_keys=ON is required
// for override rows to cascade with their calendar.
func dsn(path string) string {
	return path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
}

// Open connects to the calendar store at cfg.Path, creating the parent
// directory if needed. The schema is not touched; call Migrate next.
func Open(cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create calendar store directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open calendar store: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connect to calendar store %s: %w", cfg.Path, err)
	}

	var fk int
	if err := sqlDB.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("read foreign_keys pragma: %w", err)
	}
	if fk != 1 {
		sqlDB.Close()
		return nil, errors.New("calendar store needs SQLite foreign keys enabled")
	}

	logger.Debug("calendar store opened", slog.String("path", cfg.Path))

	return &DB{DB: sqlDB, logger: logger, path: cfg.Path}, nil
}

// Close releases the store's connections.
func (db *DB) Close() error {
	db.logger.Debug("calendar store closed", slog.String("path", db.path))
	return db.DB.Close()
}

// Health reports whether the store answers and its schema is in place.
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendars").Scan(&n); err != nil {
		return fmt.Errorf("calendar store unavailable: %w", err)
	}
	return nil
}

// =============================================================================
// Schema
// =============================================================================

// Migrate brings the schema up to the newest version in migrationsSQL and
// returns how many versions it applied. Versions are recorded in
// schema_migrations and applied in one transaction, so a failed upgrade
// leaves the previous schema intact.
func (db *DB) Migrate(ctx context.Context) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin schema upgrade: %w", err)
	}
	defer tx.Rollback()

	applied, err := appliedVersions(ctx, tx)
	if err != nil {
		return 0, err
	}

	count := 0
	for version := 1; version <= len(migrationsSQL); version++ {
		if applied[version] {
			continue
		}
		content, ok := migrationsSQL[version]
		if !ok {
			return count, fmt.Errorf("schema version %d is missing", version)
		}

		db.logger.Info("upgrading calendar store schema", slog.Int("version", version))

		if _, err := tx.ExecContext(ctx, content); err != nil {
			return count, fmt.Errorf("apply schema version %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return count, fmt.Errorf("record schema version %d: %w", version, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("commit schema upgrade: %w", err)
	}

	if count > 0 {
		db.logger.Info("calendar store schema upgraded",
			slog.Int("applied", count),
			slog.Int("version", len(migrationsSQL)),
		)
	}
	return count, nil
}

// appliedVersions creates schema_migrations if needed and returns the
// versions already recorded in it.
func appliedVersions(ctx context.Context, tx *Tx) (map[int]bool, error) {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read schema versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// =============================================================================
// Transactions
// =============================================================================

// Tx is a store transaction. It carries the same calendar and override
// writes as DB, so a batch such as an import commits or fails as a whole.
type Tx struct {
	*sql.Tx
}

// BeginTx starts a store transaction.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx}, nil
}

// WithTx runs fn in a transaction, committing if fn returns nil and rolling
// back otherwise. fn's error is returned unwrapped so callers can match
// ErrDuplicate and ErrNotFound.
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar changes: %w", err)
	}
	return nil
}

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNotFound is returned when a calendar or override does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned for a calendar name that is already taken or
	// a second override on the same date.
	ErrDuplicate = errors.New("duplicate record")
)

// IsNotFound reports whether err means the calendar or override is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
