package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at the given path and enables
// WAL journal mode. ":memory:" is accepted for tests.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared&_pragma=foreign_keys(ON)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Bootstrap creates the metrics-log tables when missing. The seq columns
// are AUTOINCREMENT so insertion order survives round trips.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id       TEXT PRIMARY KEY,
			age           INTEGER,
			sex           TEXT,
			conditions    TEXT NOT NULL DEFAULT '[]',
			creation_time TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vitals (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			reading_id TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			value      REAL NOT NULL,
			unit       TEXT NOT NULL,
			ts         TIMESTAMP NOT NULL,
			note       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vitals_user_kind_ts ON vitals (user_id, kind, ts)`,
		`CREATE TABLE IF NOT EXISTS symptoms (
			seq      INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL UNIQUE,
			user_id  TEXT NOT NULL,
			symptom  TEXT NOT NULL,
			severity INTEGER NOT NULL,
			ts       TIMESTAMP NOT NULL,
			note     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symptoms_user_ts ON symptoms (user_id, ts)`,
		`CREATE TABLE IF NOT EXISTS medications (
			medication_id TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			name          TEXT NOT NULL,
			dosage        TEXT NOT NULL,
			frequency     TEXT NOT NULL,
			start_date    TIMESTAMP NOT NULL,
			end_date      TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_user ON medications (user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite bootstrap: %w", err)
		}
	}
	return nil
}
