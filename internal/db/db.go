package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hivemindhq/hivemind/internal/config"
	"github.com/hivemindhq/hivemind/internal/errors"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/hivemind.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.hivemind.
// Failures are STORE_UNAVAILABLE: the caller cannot fix them by changing
// its input.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.NewStoreUnavailable(fmt.Errorf("failed to create base directory: %w", err))
	}
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "hivemind.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStoreUnavailable(fmt.Errorf("failed to open database: %w", err))
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, errors.NewStoreUnavailable(err)
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.NewStoreUnavailable(err)
	}

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
//
// The entries_fts virtual table is an external-content FTS5 index over the
// searchable subset of entry fields. The AFTER INSERT/UPDATE/DELETE triggers
// run inside the same transaction as the triggering statement, so the shadow
// index can never be observed stale or missing a row.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: entries table + FTS5 shadow index
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS entries (
		  id              INTEGER PRIMARY KEY AUTOINCREMENT,
		  title           TEXT NOT NULL,
		  category        TEXT NOT NULL,
		  tags            TEXT NOT NULL DEFAULT '[]',
		  problem         TEXT NOT NULL,
		  solution        TEXT NOT NULL,
		  why             TEXT,
		  gotchas         TEXT NOT NULL DEFAULT '[]',
		  learned_from    TEXT,
		  submitted_by    TEXT NOT NULL DEFAULT 'anonymous',
		  created_at      INTEGER NOT NULL,
		  upvotes         INTEGER NOT NULL DEFAULT 0,
		  language        TEXT,
		  framework       TEXT,
		  severity        TEXT NOT NULL DEFAULT 'moderate',
		  environment     TEXT NOT NULL DEFAULT '[]',
		  error_messages  TEXT NOT NULL DEFAULT '[]',
		  version_info    TEXT,
		  context         TEXT,
		  keywords        TEXT NOT NULL DEFAULT '[]',
		  code_snippets   TEXT NOT NULL DEFAULT '[]',
		  related_entries TEXT NOT NULL DEFAULT '[]'
		);

		CREATE INDEX IF NOT EXISTS idx_entries_category ON entries(category);
		CREATE INDEX IF NOT EXISTS idx_entries_language ON entries(language) WHERE language IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_framework ON entries(framework) WHERE framework IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_entries_severity ON entries(severity);

		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
		  title, problem, solution, why,
		  error_messages, keywords, context,
		  tags, language, framework,
		  content='entries', content_rowid='id'
		);

		CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
		  INSERT INTO entries_fts(rowid, title, problem, solution, why, error_messages, keywords, context, tags, language, framework)
		  VALUES (new.id, new.title, new.problem, new.solution, new.why, new.error_messages, new.keywords, new.context, new.tags, new.language, new.framework);
		END;

		CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
		  INSERT INTO entries_fts(entries_fts, rowid, title, problem, solution, why, error_messages, keywords, context, tags, language, framework)
		  VALUES ('delete', old.id, old.title, old.problem, old.solution, old.why, old.error_messages, old.keywords, old.context, old.tags, old.language, old.framework);
		  INSERT INTO entries_fts(rowid, title, problem, solution, why, error_messages, keywords, context, tags, language, framework)
		  VALUES (new.id, new.title, new.problem, new.solution, new.why, new.error_messages, new.keywords, new.context, new.tags, new.language, new.framework);
		END;

		CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
		  INSERT INTO entries_fts(entries_fts, rowid, title, problem, solution, why, error_messages, keywords, context, tags, language, framework)
		  VALUES ('delete', old.id, old.title, old.problem, old.solution, old.why, old.error_messages, old.keywords, old.context, old.tags, old.language, old.framework);
		END;
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
