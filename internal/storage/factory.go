// Package storage selects the persistence backend for Folio.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/storage/sqlite"
	"github.com/bobmcallan/folio/internal/storage/surrealdb"
)

// NewStorageManager creates the storage manager named by config.Storage.Backend.
// Supported backends: "sqlite" (default), "surrealdb".
func NewStorageManager(ctx context.Context, logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = common.BackendSQLite
	}

	switch backend {
	case common.BackendSQLite:
		return sqlite.NewManager(ctx, logger, config.Storage.SQLite.Path)

	case common.BackendSurrealDB:
		return surrealdb.NewManager(ctx, logger, config.Storage.SurrealDB)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: %s, %s)",
			backend, common.BackendSQLite, common.BackendSurrealDB)
	}
}
