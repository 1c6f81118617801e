package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	userStore      *UserStore
	portfolioStore *PortfolioStore
	tradeStore     *TradeStore
}

// schema is applied on every start. SurrealDB v3 errors on querying tables
// that were never defined.
var schema = []string{
	"DEFINE TABLE IF NOT EXISTS user SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS portfolio SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS trade SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS user_username ON user FIELDS username UNIQUE",
	"DEFINE INDEX IF NOT EXISTS portfolio_user ON portfolio FIELDS user_id",
	"DEFINE INDEX IF NOT EXISTS trade_user ON trade FIELDS user_id",
	"DEFINE INDEX IF NOT EXISTS trade_portfolio ON trade FIELDS portfolio_id",
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(ctx context.Context, logger *common.Logger, config common.SurrealDBConfig) (*Manager, error) {
	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m := &Manager{
		db:             db,
		logger:         logger,
		userStore:      NewUserStore(db, logger),
		portfolioStore: NewPortfolioStore(db, logger),
		tradeStore:     NewTradeStore(db, logger),
	}

	if err := m.Migrate(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// Migrate defines tables and indexes.
func (m *Manager) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := surrealdb.Query[any](ctx, m.db, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply %q: %w", stmt, err)
		}
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
	return m.db.Close(context.Background())
}

// isConflictError reports a unique index or record id collision.
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists")
}

// queryRows runs sql and returns the rows of the first statement.
func queryRows[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	res, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if res == nil || len(*res) == 0 {
		return nil, nil
	}
	return (*res)[0].Result, nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
