package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"vehicleinventory/db"
)

const driverName = "sqlite"

// SQLiteDB is the pure-Go engine used when the cgo build is unavailable.
type SQLiteDB struct {
	*db.SQLStore
	Path string
}

func NewSQLiteDB(path string) *SQLiteDB {
	return &SQLiteDB{Path: path}
}

func Open(ctx context.Context, path string) (db.Store, error) {
	s := NewSQLiteDB(path)
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func Candidate() db.Candidate {
	return db.Candidate{Name: db.SQLite, Open: Open}
}

func (s *SQLiteDB) Connect(ctx context.Context) error {
	conn, err := sqlx.Open(driverName, dsn(s.Path))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.SQLStore = db.NewSQLStore(conn, db.SQLite, isUniqueViolation)
	return nil
}

func (s *SQLiteDB) Disconnect() error {
	if s.SQLStore == nil {
		return nil
	}
	return s.SQLStore.Close()
}

func (s *SQLiteDB) MigrationDriver() (string, database.Driver, error) {
	conn, err := sql.Open(driverName, dsn(s.Path))
	if err != nil {
		return "", nil, err
	}
	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		_ = conn.Close()
		return "", nil, err
	}
	return driverName, driver, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(10000)")
	q.Add("_pragma", "foreign_keys(0)")
	return path + "?" + q.Encode()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
			se.Code() == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
