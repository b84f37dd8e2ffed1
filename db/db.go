package db

import (
	"context"
	"errors"

	"github.com/golang-migrate/migrate/v4/database"
)

type DBType string

const (
	SQLite3 DBType = "sqlite3"
	SQLite  DBType = "sqlite"
	Mock    DBType = "mock"
)

// Row is one result row keyed by column name.
type Row = map[string]any

type RunResult struct {
	LastInsertID int64
	Changes      int64
}

// Store is the capability every storage backend provides. Get returns a nil Row
// and a nil error when no row matches.
type Store interface {
	Name() DBType
	Persistent() bool
	All(ctx context.Context, query string, args ...any) ([]Row, error)
	Get(ctx context.Context, query string, args ...any) (Row, error)
	Run(ctx context.Context, query string, args ...any) (RunResult, error)
	IsUniqueViolation(err error) bool
	Close() error
}

// Migratable is implemented by backends that can hand golang-migrate a
// short-lived database driver on the same file.
type Migratable interface {
	MigrationDriver() (driverName string, driver database.Driver, err error)
}

var (
	ErrNoBackend = errors.New("no storage backend could be opened")
	ErrBootstrap = errors.New("schema bootstrap failed")
	ErrClosed    = errors.New("store is closed")
)
