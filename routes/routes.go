package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"vehicleinventory/db"
	"vehicleinventory/handlers"
	"vehicleinventory/metrics"
)

const RequestIDHeader = "X-Request-ID"

// Handlers bundles everything the router mounts.
type Handlers struct {
	Query  *handlers.QueryHandler
	Sync   *handlers.SyncHandler
	Notify *handlers.NotifyHandler
	Backup *handlers.BackupHandler
	// WS serves the notification stream.
	WS http.HandlerFunc
	// Store backs the readiness check.
	Store db.Store
}

// CORS middleware
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") // the UI shell loads from file:// or a dev server
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRequestID echoes the caller's request id or mints one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func wrap(log *zap.Logger, h http.HandlerFunc) http.Handler {
	return withRequestID(withCORS(handlers.RecoverWrapper(log, h)))
}

// storeCheck reports the store ready when it can answer a trivial query.
func storeCheck(store db.Store) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := store.Get(ctx, "SELECT 1 AS ok")
		return err
	}
}

func SetupRoutes(mux *http.ServeMux, h *Handlers, log *zap.Logger) {
	// Query façade
	mux.Handle("/query", wrap(log, h.Query.Query))

	// Cloud sync
	mux.Handle("/sync/status", wrap(log, h.Sync.Status))
	mux.Handle("/sync/trigger", wrap(log, h.Sync.Trigger))

	// Notifications
	mux.Handle("/notify", wrap(log, h.Notify.Notify))
	if h.WS != nil {
		mux.Handle("/ws", withRequestID(handlers.RecoverWrapper(log, h.WS)))
	}

	// Backups
	mux.Handle("/backup", wrap(log, h.Backup.Backup))

	// Health and metrics
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	if h.Store != nil {
		health.AddReadinessCheck("store", storeCheck(h.Store))
	}
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)
	mux.Handle("/metrics", metrics.Handler())
}
