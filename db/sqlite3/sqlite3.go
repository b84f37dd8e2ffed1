package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/jmoiron/sqlx"
	mattn "github.com/mattn/go-sqlite3"

	"vehicleinventory/db"
)

const driverName = "sqlite3"

// SQLite3DB is the cgo-backed engine. It is preferred when the binary was
// built with cgo; without cgo Connect fails and the selector moves on.
type SQLite3DB struct {
	*db.SQLStore
	Path string
}

func NewSQLite3DB(path string) *SQLite3DB {
	return &SQLite3DB{Path: path}
}

// Open is the selector entry point.
func Open(ctx context.Context, path string) (db.Store, error) {
	s := NewSQLite3DB(path)
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func Candidate() db.Candidate {
	return db.Candidate{Name: db.SQLite3, Open: Open}
}

func (s *SQLite3DB) Connect(ctx context.Context) error {
	conn, err := sqlx.Open(driverName, dsn(s.Path))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: the engine serializes access to the file.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.SQLStore = db.NewSQLStore(conn, db.SQLite3, isUniqueViolation)
	return nil
}

func (s *SQLite3DB) Disconnect() error {
	if s.SQLStore == nil {
		return nil
	}
	return s.SQLStore.Close()
}

// MigrationDriver opens a separate handle on the same file for golang-migrate.
func (s *SQLite3DB) MigrationDriver() (string, database.Driver, error) {
	conn, err := sql.Open(driverName, dsn(s.Path))
	if err != nil {
		return "", nil, err
	}
	driver, err := migratesqlite3.WithInstance(conn, &migratesqlite3.Config{})
	if err != nil {
		_ = conn.Close()
		return "", nil, err
	}
	return driverName, driver, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "10000")
	// Foreign-key-shaped columns are weak references.
	q.Set("_foreign_keys", "0")
	return path + "?" + q.Encode()
}

func isUniqueViolation(err error) bool {
	var se mattn.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == mattn.ErrConstraintUnique ||
			se.ExtendedCode == mattn.ErrConstraintPrimaryKey
	}
	return false
}
