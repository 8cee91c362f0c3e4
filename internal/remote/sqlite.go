package remote

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mizutama/pochi/internal/config"
	"github.com/mizutama/pochi/internal/errors"
	"github.com/mizutama/pochi/internal/snippet"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// SQLiteService is a Service backed by a SQLite database. It stands in
// for the hosted per-account collection, which keeps the whole sync
// path exercisable on a single machine.
type SQLiteService struct {
	db *sql.DB
}

// NewSQLiteService wraps an already-initialized database handle.
func NewSQLiteService(db *sql.DB) *SQLiteService {
	return &SQLiteService{db: db}
}

// Open initializes the SQLite database at baseDir/remote.db and
// returns a service over it.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.pochi.
func Open(baseDir string) (*SQLiteService, error) {
	db, err := Init(baseDir)
	if err != nil {
		return nil, err
	}
	return &SQLiteService{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteService) Close() error {
	return s.db.Close()
}

// Init opens the database with WAL mode and runs migrations.
func Init(baseDir string) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "remote.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS snippets (
		  account_id TEXT NOT NULL,
		  id         TEXT NOT NULL,
		  label      TEXT NOT NULL,
		  content    TEXT NOT NULL,
		  color      TEXT NOT NULL,
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL,
		  PRIMARY KEY (account_id, id)
		);

		CREATE INDEX IF NOT EXISTS idx_snippets_account_created
		ON snippets(account_id, created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// List returns every snippet for the account, newest creation first.
// Ties on created_at break by id so the order is stable.
func (s *SQLiteService) List(ctx context.Context, accountID string) ([]snippet.Snippet, error) {
	query := `
		SELECT id, label, content, color
		FROM snippets
		WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, errors.NewRemoteUnavailable(err)
	}
	defer rows.Close()

	var out []snippet.Snippet
	for rows.Next() {
		var sn snippet.Snippet
		if err := rows.Scan(&sn.ID, &sn.Label, &sn.Content, &sn.Color); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewRemoteUnavailable(err)
	}

	return out, nil
}

// Upsert inserts or updates the record for (accountID, s.ID).
// created_at is preserved on conflict; updated_at is always refreshed.
func (s *SQLiteService) Upsert(ctx context.Context, accountID string, sn snippet.Snippet) error {
	now := time.Now().Unix()

	query := `
		INSERT INTO snippets (account_id, id, label, content, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, id) DO UPDATE SET
			label = excluded.label,
			content = excluded.content,
			color = excluded.color,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, accountID, sn.ID, sn.Label, sn.Content, sn.Color, now, now)
	if err != nil {
		return errors.NewRemoteUnavailable(err)
	}
	return nil
}

// Delete removes the record for (accountID, id). Deleting an absent id
// is not an error.
func (s *SQLiteService) Delete(ctx context.Context, accountID, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM snippets WHERE account_id = ? AND id = ?", accountID, id)
	if err != nil {
		return errors.NewRemoteUnavailable(err)
	}
	return nil
}

// DeleteAll removes every record for the account.
func (s *SQLiteService) DeleteAll(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM snippets WHERE account_id = ?", accountID)
	if err != nil {
		return errors.NewRemoteUnavailable(err)
	}
	return nil
}
