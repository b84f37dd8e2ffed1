package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicleinventory/db/dbtest"
	"vehicleinventory/handlers"
	"vehicleinventory/models"
	"vehicleinventory/notify"
	"vehicleinventory/repository"
)

type idleSync struct{}

func (idleSync) GetStatus() models.SyncStatus { return models.SyncStatus{} }
func (idleSync) TriggerSync(_ context.Context) (models.SyncStatus, error) {
	return models.SyncStatus{}, nil
}

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	log := zap.NewNop()
	store := dbtest.OpenReady(t)
	hub := notify.NewHub(log)

	mux := http.NewServeMux()
	SetupRoutes(mux, &Handlers{
		Query:  &handlers.QueryHandler{Repo: repository.NewStoreQueryRepo(store, log), Log: log},
		Sync:   &handlers.SyncHandler{Sync: idleSync{}},
		Notify: &handlers.NotifyHandler{Notifier: hub},
		Backup: &handlers.BackupHandler{Log: log},
		WS:     hub.ServeWS,
		Store:  store,
	}, log)
	return mux
}

func TestRoutes_QueryWithRequestID(t *testing.T) {
	mux := newMux(t)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"kind":"all","sql":"SELECT * FROM parts"}`))
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_MintsRequestID(t *testing.T) {
	mux := newMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestRoutes_Preflight(t *testing.T) {
	mux := newMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/query", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	mux := newMux(t)

	for _, path := range []string{"/live", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRoutes_BackupNotConfigured(t *testing.T) {
	mux := newMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/backup", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
