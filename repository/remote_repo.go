package repository

import (
	"context"

	"vehicleinventory/db"
)

// RemoteRepository is the cloud mirror the reconciler syncs against.
// Rows are keyed by column name, the same shape the local store returns.
type RemoteRepository interface {
	FetchAll(ctx context.Context, table string) ([]db.Row, error)
	Insert(ctx context.Context, table string, row db.Row) error
	Update(ctx context.Context, table, key string, id any, row db.Row) error
	Close() error
}
