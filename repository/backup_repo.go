package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vehicleinventory/db"
)

var ErrBackupUnavailable = errors.New("backups need a persistent store")

// Uploader is the object storage a snapshot is pushed to.
type Uploader interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
}

type BackupRepository struct {
	Store    db.Store
	Uploader Uploader
	log      *zap.Logger
}

func NewBackupRepository(store db.Store, uploader Uploader, log *zap.Logger) *BackupRepository {
	return &BackupRepository{Store: store, Uploader: uploader, log: log}
}

// Backup snapshots the live database with VACUUM INTO, uploads the copy and
// returns its URL. The snapshot is consistent even while writes continue.
func (r *BackupRepository) Backup(ctx context.Context) (string, error) {
	if !r.Store.Persistent() {
		return "", ErrBackupUnavailable
	}

	dir, err := os.MkdirTemp("", "vehicle-inventory-backup-")
	if err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	defer os.RemoveAll(dir)

	now := time.Now().UTC()
	filename := fmt.Sprintf("vehicle-inventory-%s-%s.db", now.Format("20060102T150405Z"), uuid.NewString()[:8])
	dest := filepath.Join(dir, filename)

	if _, err := r.Store.Run(ctx, fmt.Sprintf(`VACUUM INTO '%s'`, strings.ReplaceAll(dest, "'", "''"))); err != nil {
		return "", fmt.Errorf("vacuum into: %w", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}

	key := "backups/" + filename
	url, err := r.Uploader.Upload(ctx, data, key, "application/vnd.sqlite3")
	if err != nil {
		return "", err
	}
	r.log.Info("backup uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return url, nil
}
