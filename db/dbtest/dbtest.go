// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"vehicleinventory/db"
	"vehicleinventory/db/sqlite"
)

// Open returns an empty pure-Go SQLite store under t.TempDir.
func Open(t testing.TB) *sqlite.SQLiteDB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s := sqlite.NewSQLiteDB(path)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

// OpenReady returns a store with the full schema bootstrapped and migrated.
func OpenReady(t testing.TB) *sqlite.SQLiteDB {
	t.Helper()
	s := Open(t)
	ctx := context.Background()
	log := zap.NewNop()
	if err := db.Bootstrap(ctx, s, log); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := db.Migrate(ctx, s, db.DefaultSteps(), log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}
