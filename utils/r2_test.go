package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "vehicleinventory/config"
)

func TestNewR2Client_NotConfigured(t *testing.T) {
	_, err := NewR2Client(context.Background(), appconfig.R2Config{Bucket: "backups"})
	assert.ErrorIs(t, err, ErrR2NotConfigured)
}

func TestR2Client_PublicURL(t *testing.T) {
	c, err := NewR2Client(context.Background(), appconfig.R2Config{
		AccountID:       "acct",
		Bucket:          "backups",
		PublicURL:       "https://files.example.com/",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/backups/a%20b.db", c.PublicURL("backups/a b.db"))
}
