package mock

import (
	"context"
	"sync"

	"vehicleinventory/db"
)

// Call records one statement handed to the mock.
type Call struct {
	Op    string
	Query string
	Args  []any
}

// MockDB is the last-resort backend. Nothing is persisted: reads come back
// empty and writes report zero changes.
type MockDB struct {
	mu    sync.Mutex
	calls []Call
}

func NewMockDB() *MockDB {
	return &MockDB{}
}

func Open(_ context.Context, _ string) (db.Store, error) {
	return NewMockDB(), nil
}

func Candidate() db.Candidate {
	return db.Candidate{Name: db.Mock, Open: Open}
}

func (m *MockDB) Name() db.DBType  { return db.Mock }
func (m *MockDB) Persistent() bool { return false }

func (m *MockDB) All(_ context.Context, query string, args ...any) ([]db.Row, error) {
	m.record("all", query, args)
	return []db.Row{}, nil
}

func (m *MockDB) Get(_ context.Context, query string, args ...any) (db.Row, error) {
	m.record("get", query, args)
	return nil, nil
}

func (m *MockDB) Run(_ context.Context, query string, args ...any) (db.RunResult, error) {
	m.record("run", query, args)
	return db.RunResult{}, nil
}

func (m *MockDB) IsUniqueViolation(error) bool { return false }

func (m *MockDB) Close() error { return nil }

// Calls returns a copy of every statement received so far.
func (m *MockDB) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockDB) record(op, query string, args []any) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Op: op, Query: query, Args: args})
	m.mu.Unlock()
}
