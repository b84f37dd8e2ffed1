package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleinventory/db"
)

func openTemp(t *testing.T) *SQLiteDB {
	t.Helper()
	s := NewSQLiteDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.Run(ctx, `CREATE TABLE parts (id INTEGER PRIMARY KEY AUTOINCREMENT, part_number TEXT UNIQUE, name TEXT, photo BLOB)`)
	require.NoError(t, err)

	res, err := s.Run(ctx, `INSERT INTO parts (part_number, name, photo) VALUES (?, ?, ?)`, "BRK-001", "Brake pad", []byte("aGVsbG8="))
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastInsertID)
	assert.Equal(t, int64(1), res.Changes)

	rows, err := s.All(ctx, `SELECT * FROM parts`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BRK-001", rows[0]["part_number"])
	assert.Equal(t, "aGVsbG8=", rows[0]["photo"], "blobs are normalized to strings")

	row, err := s.Get(ctx, `SELECT * FROM parts WHERE part_number = ?`, "missing")
	require.NoError(t, err)
	assert.Nil(t, row)

	empty, err := s.All(ctx, `SELECT * FROM parts WHERE id > 100`)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSQLiteStoreClassifiesUniqueViolations(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.Run(ctx, `CREATE TABLE job_cards (id INTEGER PRIMARY KEY, job_no TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	_, err = s.Run(ctx, `INSERT INTO job_cards (job_no) VALUES ('000001')`)
	require.NoError(t, err)

	_, err = s.Run(ctx, `INSERT INTO job_cards (job_no) VALUES ('000001')`)
	require.Error(t, err)
	assert.True(t, s.IsUniqueViolation(err))

	_, err = s.Run(ctx, `INSERT INTO job_cards (job_no) VALUES (NULL)`)
	require.Error(t, err)
	assert.False(t, s.IsUniqueViolation(err))
}

func TestSQLiteStoreClosed(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Disconnect())
	require.NoError(t, s.Disconnect())

	_, err := s.All(context.Background(), `SELECT 1`)
	assert.ErrorIs(t, err, db.ErrClosed)
}

func TestSQLiteCandidateOpens(t *testing.T) {
	store, err := Candidate().Open(context.Background(), filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, db.SQLite, store.Name())
	assert.True(t, store.Persistent())
	_, ok := store.(db.Migratable)
	assert.True(t, ok)
}
