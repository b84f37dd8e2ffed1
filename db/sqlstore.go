package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
)

// SQLStore implements Store over a database/sql driver. Both embedded SQLite
// backends share it and differ only in driver name and error classification.
type SQLStore struct {
	Conn *sqlx.DB

	name     DBType
	isUnique func(error) bool

	mu     sync.RWMutex
	closed bool
}

func NewSQLStore(conn *sqlx.DB, name DBType, isUnique func(error) bool) *SQLStore {
	return &SQLStore{Conn: conn, name: name, isUnique: isUnique}
}

func (s *SQLStore) Name() DBType     { return s.name }
func (s *SQLStore) Persistent() bool { return true }

func (s *SQLStore) All(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.Conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		out = append(out, normalize(row))
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, query string, args ...any) (Row, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row := map[string]any{}
	err := s.Conn.QueryRowxContext(ctx, query, args...).MapScan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return normalize(row), nil
}

func (s *SQLStore) Run(ctx context.Context, query string, args ...any) (RunResult, error) {
	if err := s.check(); err != nil {
		return RunResult{}, err
	}
	res, err := s.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return RunResult{}, err
	}
	var out RunResult
	// Some statements (DDL, VACUUM) report neither value.
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.Changes = n
	}
	return out, nil
}

func (s *SQLStore) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if s.isUnique != nil && s.isUnique(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.Conn.Close()
}

func (s *SQLStore) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func normalize(row map[string]any) Row {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}
