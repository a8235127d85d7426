package storage

import (
	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name:         KindMySQL,
	driver:       "mysql",
	placeholder:  questionPlaceholder,
	upsertSuffix: onDuplicateKeyUpsert,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR(64) PRIMARY KEY,
			created_at VARCHAR(40) NOT NULL,
			payload LONGBLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fitness_history (
			run_id VARCHAR(64) PRIMARY KEY,
			payload LONGBLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generation_diagnostics (
			run_id VARCHAR(64) PRIMARY KEY,
			payload LONGBLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS populations (
			run_id VARCHAR(64) PRIMARY KEY,
			payload LONGBLOB NOT NULL
		)`,
	},
}

// NewMySQLStore expects a go-sql-driver DSN, e.g. "user:pass@tcp(localhost:3306)/gaopt".
func NewMySQLStore(dsn string) *SQLStore {
	return newSQLStore(mysqlDialect, dsn)
}
