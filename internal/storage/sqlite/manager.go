package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Manager implements interfaces.StorageManager using SQLite.
type Manager struct {
	db     *sql.DB
	logger *common.Logger
	path   string

	userStore      *UserStore
	portfolioStore *PortfolioStore
	tradeStore     *TradeStore
}

// NewManager opens the database at path and applies the schema.
func NewManager(ctx context.Context, logger *common.Logger, path string) (*Manager, error) {
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		db:             db,
		logger:         logger,
		path:           path,
		userStore:      NewUserStore(db, logger),
		portfolioStore: NewPortfolioStore(db, logger),
		tradeStore:     NewTradeStore(db, logger),
	}

	if err := m.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("SQLite storage manager initialized")
	return m, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (m *Manager) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (m *Manager) UserStore() interfaces.UserStore {
	return m.userStore
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore {
	return m.portfolioStore
}

func (m *Manager) TradeStore() interfaces.TradeStore {
	return m.tradeStore
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
