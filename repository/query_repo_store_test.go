package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicleinventory/db/dbtest"
	"vehicleinventory/db/mock"
	"vehicleinventory/models"
)

func newQueryRepo(t *testing.T) *StoreQueryRepo {
	t.Helper()
	return NewStoreQueryRepo(dbtest.OpenReady(t), zap.NewNop())
}

func run(t *testing.T, r QueryRepository, sql string, params ...any) *models.QueryResult {
	t.Helper()
	res, err := r.Execute(context.Background(), &models.QueryRequest{Kind: models.QueryRun, SQL: sql, Params: params})
	require.NoError(t, err)
	return res
}

func TestExecute_DuplicatePartInsertIsIgnored(t *testing.T) {
	r := newQueryRepo(t)
	insert := "INSERT INTO parts (part_number, name) VALUES (?, ?)"

	first := run(t, r, insert, "BRK-001", "Brake pad")
	assert.Equal(t, int64(1), first.Changes)

	second := run(t, r, insert, "BRK-001", "Brake pad")
	assert.Equal(t, int64(0), second.Changes)

	res, err := r.Execute(context.Background(), &models.QueryRequest{
		Kind:   models.QueryAll,
		SQL:    "SELECT * FROM parts WHERE part_number = ?",
		Params: []any{"BRK-001"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestExecute_GetAbsent(t *testing.T) {
	r := newQueryRepo(t)
	res, err := r.Execute(context.Background(), &models.QueryRequest{
		Kind:   models.QueryGet,
		SQL:    "SELECT * FROM parts WHERE id = ?",
		Params: []any{int64(999)},
	})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.Row)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestExecute_AllEmptyIsNotNil(t *testing.T) {
	r := newQueryRepo(t)
	res, err := r.Execute(context.Background(), &models.QueryRequest{Kind: models.QueryAll, SQL: "SELECT * FROM parts"})
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestExecute_RunReportsInsertID(t *testing.T) {
	r := newQueryRepo(t)
	res := run(t, r, "INSERT INTO stock_movements (part_id, movement_type, quantity) VALUES (?, ?, ?)", 1, "IN", 5)
	assert.Equal(t, int64(1), res.LastInsertID)
	assert.Equal(t, int64(1), res.Changes)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lastInsertRowid":1,"changes":1}`, string(b))
}

func TestExecute_UnruledDuplicateSurfacesQueryError(t *testing.T) {
	r := newQueryRepo(t)
	insert := "INSERT INTO stock_receives (grn_no) VALUES (?)"
	run(t, r, insert, "GRN000001")

	_, err := r.Execute(context.Background(), &models.QueryRequest{Kind: models.QueryRun, SQL: insert, Params: []any{"GRN000001"}})
	require.Error(t, err)

	var qe *QueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, insert, qe.SQL)
	assert.Equal(t, []any{"GRN000001"}, qe.Params)
	assert.True(t, IsDuplicate(err))
	assert.NotNil(t, errors.Unwrap(err))
}

func TestExecute_SyntaxErrorIsNotDuplicate(t *testing.T) {
	r := newQueryRepo(t)
	_, err := r.Execute(context.Background(), &models.QueryRequest{Kind: models.QueryAll, SQL: "SELECT * FROM no_such_table"})
	require.Error(t, err)
	assert.False(t, IsDuplicate(err))
}

func TestExecute_RejectsBadRequests(t *testing.T) {
	r := newQueryRepo(t)

	_, err := r.Execute(context.Background(), &models.QueryRequest{Kind: "exec", SQL: "SELECT 1"})
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = r.Execute(context.Background(), &models.QueryRequest{Kind: models.QueryAll, SQL: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = r.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestExecute_MockBackend(t *testing.T) {
	m := mock.NewMockDB()
	r := NewStoreQueryRepo(m, zap.NewNop())

	res := run(t, r, "INSERT INTO parts (part_number, name) VALUES (?, ?)", "BRK-001", "Brake pad")
	assert.Equal(t, int64(0), res.Changes)

	all, err := r.Execute(context.Background(), &models.QueryRequest{Kind: models.QueryAll, SQL: "SELECT * FROM parts"})
	require.NoError(t, err)
	assert.Empty(t, all.Rows)

	calls := m.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "INSERT OR IGNORE INTO parts (part_number, name) VALUES (?, ?)", calls[0].Query)
}
