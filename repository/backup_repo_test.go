package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vehicleinventory/db/dbtest"
	"vehicleinventory/db/mock"
)

type memUploader struct {
	key  string
	data []byte
	err  error
}

func (u *memUploader) Upload(_ context.Context, data []byte, key, _ string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.key, u.data = key, data
	return "https://files.example.com/" + key, nil
}

func TestBackup_UploadsSnapshot(t *testing.T) {
	store := dbtest.OpenReady(t)
	up := &memUploader{}
	r := NewBackupRepository(store, up, zap.NewNop())

	url, err := r.Backup(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.key, "backups/vehicle-inventory-"))
	assert.Equal(t, "https://files.example.com/"+up.key, url)
	require.NotEmpty(t, up.data)
	assert.Equal(t, "SQLite format 3\x00", string(up.data[:16]))
}

func TestBackup_MockStoreUnavailable(t *testing.T) {
	r := NewBackupRepository(mock.NewMockDB(), &memUploader{}, zap.NewNop())
	_, err := r.Backup(context.Background())
	assert.ErrorIs(t, err, ErrBackupUnavailable)
}

func TestBackup_UploadFailure(t *testing.T) {
	boom := errors.New("bucket gone")
	r := NewBackupRepository(dbtest.OpenReady(t), &memUploader{err: boom}, zap.NewNop())
	_, err := r.Backup(context.Background())
	assert.ErrorIs(t, err, boom)
}
