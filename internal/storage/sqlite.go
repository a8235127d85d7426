//go:build sqlite

package storage

import (
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name:         KindSQLite,
	driver:       "sqlite",
	placeholder:  questionPlaceholder,
	upsertSuffix: onConflictUpsert,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fitness_history (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generation_diagnostics (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS populations (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
	},
}

func NewSQLiteStore(path string) *SQLStore {
	return newSQLStore(sqliteDialect, path)
}

func newSQLiteStore(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	return NewSQLiteStore(path), nil
}
