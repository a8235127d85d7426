package storage

import (
	"errors"
	"fmt"
)

const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMySQL    = "mysql"
	KindBadger   = "badger"
)

var errNotInitialized = errors.New("store is not initialized")

func DefaultStoreKind() string {
	return KindMemory
}

// NewStore builds a backend by name. dsn is a file path for sqlite and
// badger (":memory:" keeps badger in memory) and a driver DSN for postgres
// and mysql.
func NewStore(kind, dsn string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(dsn)
	case KindPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		return NewPostgresStore(dsn), nil
	case KindMySQL:
		if dsn == "" {
			return nil, fmt.Errorf("mysql dsn is required")
		}
		return NewMySQLStore(dsn), nil
	case KindBadger:
		if dsn == "" {
			return nil, fmt.Errorf("badger directory is required")
		}
		return NewBadgerStore(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
