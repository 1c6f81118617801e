package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/storage/sqlite"
)

func TestNewStorageManager_DefaultsToSQLite(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = ""
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "folio.db")

	mgr, err := NewStorageManager(context.Background(), common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	_, ok := mgr.(*sqlite.Manager)
	assert.True(t, ok)
	assert.NotNil(t, mgr.UserStore())
	assert.NotNil(t, mgr.PortfolioStore())
	assert.NotNil(t, mgr.TradeStore())
}

func TestNewStorageManager_UnknownBackend(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "badger"

	_, err := NewStorageManager(context.Background(), common.NewSilentLogger(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}
