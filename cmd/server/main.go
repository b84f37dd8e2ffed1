package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"vehicleinventory/cloudsync"
	"vehicleinventory/config"
	"vehicleinventory/db"
	"vehicleinventory/db/mock"
	"vehicleinventory/db/sqlite"
	"vehicleinventory/db/sqlite3"
	"vehicleinventory/handlers"
	"vehicleinventory/logger"
	"vehicleinventory/metrics"
	"vehicleinventory/notify"
	"vehicleinventory/repository"
	"vehicleinventory/routes"
	"vehicleinventory/stockalert"
	"vehicleinventory/utils"
)

var knownCandidates = map[string]func() db.Candidate{
	string(db.SQLite3): sqlite3.Candidate,
	string(db.SQLite):  sqlite.Candidate,
	string(db.Mock):    mock.Candidate,
}

// candidates resolves DB_DRIVERS into openers, keeping the configured order.
func candidates(names []string, log *zap.Logger) []db.Candidate {
	out := make([]db.Candidate, 0, len(names))
	for _, name := range names {
		c, ok := knownCandidates[name]
		if !ok {
			log.Warn("ignoring unknown storage driver", zap.String("driver", name))
			continue
		}
		out = append(out, c())
	}
	return out
}

func main() {
	// Load config from .env or the environment
	cfg := config.LoadConfig()

	log, err := logger.New(logger.LogConfig{Level: cfg.LogLevel, Environment: cfg.AppEnv})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: first driver that opens wins, then schema and migrations run
	// before anything is served.
	store, err := db.Select(ctx, cfg.DB.Path, candidates(cfg.DB.Drivers, log), log)
	if err != nil {
		log.Fatal("no storage backend available", zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	log.Info("storage ready",
		zap.String("backend", string(store.Name())),
		zap.Bool("persistent", store.Persistent()),
		zap.String("path", cfg.DB.Path),
	)

	if err := db.Bootstrap(ctx, store, log); err != nil {
		log.Fatal("schema bootstrap failed", zap.Error(err))
	}
	if _, err := db.Migrate(ctx, store, db.DefaultSteps(), log); err != nil {
		log.Fatal("schema evolution interrupted", zap.Error(err))
	}

	queryRepo := repository.NewStoreQueryRepo(store, log)

	// Notifications
	hub := notify.NewHub(log)
	notifier := notify.Multi{hub, notify.NewLogNotifier(log)}

	monitor := stockalert.New(queryRepo, notifier, cfg.Stock.CheckInterval, log)
	monitor.Start(ctx)
	defer monitor.Stop()

	reconciler := cloudsync.New(store, cloudsync.DialerFor(cfg.Sync, log), cloudsync.Options{
		Interval: cfg.Sync.Interval,
		Tables:   cloudsync.DefaultTables,
	}, log)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	// Backups are offered only when object storage is configured.
	backupHandler := &handlers.BackupHandler{Log: log}
	r2, err := utils.NewR2Client(ctx, cfg.R2)
	switch {
	case err == nil:
		backupHandler.Repo = repository.NewBackupRepository(store, r2, log)
	case errors.Is(err, utils.ErrR2NotConfigured):
		log.Info("R2 not configured, backups disabled")
	default:
		log.Warn("R2 client unavailable, backups disabled", zap.Error(err))
	}

	mux := http.NewServeMux()
	routes.SetupRoutes(mux, &routes.Handlers{
		Query:  &handlers.QueryHandler{Repo: queryRepo, Log: log},
		Sync:   &handlers.SyncHandler{Sync: reconciler},
		Notify: &handlers.NotifyHandler{Notifier: notifier},
		Backup: backupHandler,
		WS:     hub.ServeWS,
		Store:  store,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
}
