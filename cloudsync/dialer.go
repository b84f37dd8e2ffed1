package cloudsync

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"vehicleinventory/config"
	"vehicleinventory/db/mongo"
	"vehicleinventory/db/postgres"
	"vehicleinventory/repository"
)

// DialerFor picks the remote implementation from the URL scheme. It returns
// nil when no URL is configured, which keeps the reconciler local-only.
func DialerFor(cfg config.SyncConfig, log *zap.Logger) Dialer {
	if cfg.URL == "" {
		return nil
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		// Never log the raw URL, it may carry credentials.
		log.Error("invalid SYNC_URL, cloud sync will not connect", zap.Error(err))
		return func(context.Context) (repository.RemoteRepository, error) {
			return nil, fmt.Errorf("invalid sync url: %w", err)
		}
	}
	if cfg.Key != "" {
		u.User = url.UserPassword(u.User.Username(), cfg.Key)
	}
	dsn := u.String()

	switch u.Scheme {
	case "postgres", "postgresql":
		return func(ctx context.Context) (repository.RemoteRepository, error) {
			conn := postgres.NewPostgresDB(dsn)
			if err := conn.Connect(ctx); err != nil {
				return nil, fmt.Errorf("connect to postgres mirror: %w", err)
			}
			log.Info("connected to postgres sync mirror", zap.String("host", u.Host))
			return repository.NewPostgresRemoteRepo(conn), nil
		}
	case "mongodb", "mongodb+srv":
		return func(ctx context.Context) (repository.RemoteRepository, error) {
			conn := mongo.NewMongoDB(dsn, cfg.Database)
			if err := conn.Connect(ctx); err != nil {
				return nil, fmt.Errorf("connect to mongo mirror: %w", err)
			}
			log.Info("connected to mongo sync mirror", zap.String("host", u.Host), zap.String("database", cfg.Database))
			return repository.NewMongoRemoteRepo(conn), nil
		}
	default:
		scheme := u.Scheme
		log.Error("unsupported SYNC_URL scheme, cloud sync will not connect", zap.String("scheme", scheme))
		return func(context.Context) (repository.RemoteRepository, error) {
			return nil, fmt.Errorf("unsupported sync url scheme %q", scheme)
		}
	}
}
