package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicleinventory/db/dbtest"
	"vehicleinventory/models"
	"vehicleinventory/repository"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newQueryHandler(t *testing.T) *QueryHandler {
	t.Helper()
	return &QueryHandler{
		Repo: repository.NewStoreQueryRepo(dbtest.OpenReady(t), zap.NewNop()),
		Log:  zap.NewNop(),
	}
}

func postQuery(h *QueryHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Query(rec, req)
	return rec
}

func TestQueryHandler_RunThenAll(t *testing.T) {
	h := newQueryHandler(t)

	rec := postQuery(h, `{"kind":"run","sql":"INSERT INTO parts (part_number, name, current_stock) VALUES (?, ?, ?)","params":["BRK-001","Brake pad",5]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"lastInsertRowid":1,"changes":1}`, string(env.Data))

	rec = postQuery(h, `{"kind":"all","sql":"SELECT part_number, current_stock FROM parts"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"part_number":"BRK-001","current_stock":5}]`, string(decode(t, rec).Data))
}

func TestQueryHandler_GetAbsentIsNull(t *testing.T) {
	h := newQueryHandler(t)
	rec := postQuery(h, `{"kind":"get","sql":"SELECT * FROM parts WHERE id = ?","params":[42]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.True(t, len(env.Data) == 0 || string(env.Data) == "null")
}

func TestQueryHandler_DuplicateError(t *testing.T) {
	h := newQueryHandler(t)
	body := `{"kind":"run","sql":"INSERT INTO stock_receives (grn_no) VALUES (?)","params":["GRN000001"]}`
	require.Equal(t, http.StatusOK, postQuery(h, body).Code)

	rec := postQuery(h, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)

	var data queryErrorData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Duplicate)
	assert.Equal(t, "INSERT INTO stock_receives (grn_no) VALUES (?)", data.SQL)
	assert.Equal(t, []any{"GRN000001"}, data.Params)
}

func TestQueryHandler_BadRequests(t *testing.T) {
	h := newQueryHandler(t)

	assert.Equal(t, http.StatusBadRequest, postQuery(h, `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postQuery(h, `{"kind":"exec","sql":"SELECT 1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postQuery(h, `{"kind":"all","sql":""}`).Code)

	rec := httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodGet, "/query", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNormalizeParam(t *testing.T) {
	assert.Equal(t, int64(5), normalizeParam(json.Number("5")))
	assert.Equal(t, 2.5, normalizeParam(json.Number("2.5")))
	assert.Equal(t, "x", normalizeParam("x"))
	assert.Nil(t, normalizeParam(nil))
}

type fakeSync struct {
	status models.SyncStatus
	err    error
	calls  int
}

func (f *fakeSync) GetStatus() models.SyncStatus { return f.status }

func (f *fakeSync) TriggerSync(context.Context) (models.SyncStatus, error) {
	f.calls++
	return f.status, f.err
}

func TestSyncHandler(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	fs := &fakeSync{status: models.SyncStatus{IsConnected: true, LastSyncTime: &now}}
	h := &SyncHandler{Sync: fs}

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/sync/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isConnected":true,"isSyncing":false,"lastSyncTime":"2025-03-01T10:00:00Z"}`, string(decode(t, rec).Data))

	rec = httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodPost, "/sync/trigger", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fs.calls)

	fs.err = errors.New("boom")
	rec = httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodPost, "/sync/trigger", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSyncHandler_NotConfigured(t *testing.T) {
	h := &SyncHandler{Sync: &fakeSync{}}
	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/sync/status", nil))
	assert.JSONEq(t, `{"isConnected":false,"isSyncing":false,"lastSyncTime":null}`, string(decode(t, rec).Data))
}

type recorder struct{ title, body string }

func (r *recorder) Notify(title, body string) { r.title, r.body = title, body }

func TestNotifyHandler(t *testing.T) {
	n := &recorder{}
	h := &NotifyHandler{Notifier: n}

	rec := httptest.NewRecorder()
	h.Notify(rec, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(`{"title":"Saved","body":"Invoice INV000001 saved"}`)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "Saved", n.title)
	assert.Equal(t, "Invoice INV000001 saved", n.body)

	rec = httptest.NewRecorder()
	h.Notify(rec, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(`{"body":"no title"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeBackup struct {
	url string
	err error
}

func (f *fakeBackup) Backup(context.Context) (string, error) { return f.url, f.err }

func TestBackupHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	(&BackupHandler{Log: zap.NewNop()}).Backup(rec, httptest.NewRequest(http.MethodPost, "/backup", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h := &BackupHandler{Repo: &fakeBackup{url: "https://files.example.com/backups/a.db"}, Log: zap.NewNop()}
	h.Backup(rec, httptest.NewRequest(http.MethodPost, "/backup", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"url":"https://files.example.com/backups/a.db"}`, string(decode(t, rec).Data))

	rec = httptest.NewRecorder()
	h = &BackupHandler{Repo: &fakeBackup{err: repository.ErrBackupUnavailable}, Log: zap.NewNop()}
	h.Backup(rec, httptest.NewRequest(http.MethodPost, "/backup", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoverWrapper(t *testing.T) {
	h := RecoverWrapper(zap.NewNop(), func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decode(t, rec).Success)
}
