package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// TradeStore implements interfaces.TradeStore using SurrealDB.
type TradeStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewTradeStore(db *surrealdb.DB, logger *common.Logger) *TradeStore {
	return &TradeStore{db: db, logger: logger}
}

func (s *TradeStore) CreateTrade(ctx context.Context, trade *models.Trade) error {
	owned, err := queryRows[portfolioRow](ctx, s.db,
		"SELECT * FROM type::record('portfolio', $id) WHERE user_id = $user_id",
		map[string]any{"id": trade.PortfolioID, "user_id": trade.UserID})
	if err != nil {
		return fmt.Errorf("failed to check portfolio: %w", err)
	}
	if len(owned) == 0 {
		return fmt.Errorf("portfolio %s: %w", trade.PortfolioID, interfaces.ErrNotFound)
	}

	sql := "CREATE type::record('trade', $id) CONTENT $trade"
	vars := map[string]any{"id": trade.TradeID, "trade": newTradeRow(trade)}
	if _, err := surrealdb.Query[[]tradeRow](ctx, s.db, sql, vars); err != nil {
		if isConflictError(err) {
			return fmt.Errorf("trade %s: %w", trade.TradeID, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func (s *TradeStore) GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	rows, err := queryRows[tradeRow](ctx, s.db,
		"SELECT * FROM type::record('trade', $id) WHERE user_id = $user_id",
		map[string]any{"id": tradeID, "user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to select trade: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("trade %s: %w", tradeID, interfaces.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

func (s *TradeStore) ListTrades(ctx context.Context, userID string, opts interfaces.TradeListOptions) ([]*models.Trade, error) {
	sql := "SELECT * FROM trade WHERE user_id = $user_id"
	vars := map[string]any{"user_id": userID}
	if opts.PortfolioID != "" {
		sql += " AND portfolio_id = $portfolio_id"
		vars["portfolio_id"] = opts.PortfolioID
	}
	sql += " ORDER BY trade_date ASC, trade_id ASC"
	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := queryRows[tradeRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	out := make([]*models.Trade, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (s *TradeStore) UpdateTrade(ctx context.Context, trade *models.Trade) error {
	sql := `UPDATE type::record('trade', $id) SET
		price = $price, quantity = $quantity,
		trade_date = $trade_date, description = $description
		WHERE user_id = $user_id RETURN AFTER`
	vars := map[string]any{
		"id":          trade.TradeID,
		"user_id":     trade.UserID,
		"price":       trade.Price,
		"quantity":    trade.Quantity,
		"trade_date":  trade.TradeDate.UTC(),
		"description": trade.Description,
	}
	rows, err := queryRows[tradeRow](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("trade %s: %w", trade.TradeID, interfaces.ErrNotFound)
	}
	return nil
}

func (s *TradeStore) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	rows, err := queryRows[tradeRow](ctx, s.db,
		"DELETE type::record('trade', $id) WHERE user_id = $user_id RETURN BEFORE",
		map[string]any{"id": tradeID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("trade %s: %w", tradeID, interfaces.ErrNotFound)
	}
	return nil
}

var _ interfaces.TradeStore = (*TradeStore)(nil)
