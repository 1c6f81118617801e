package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// TradeStore implements interfaces.TradeStore.
type TradeStore struct {
	db     *sql.DB
	logger *common.Logger
}

// NewTradeStore creates a trade store over db.
func NewTradeStore(db *sql.DB, logger *common.Logger) *TradeStore {
	return &TradeStore{db: db, logger: logger}
}

const tradeColumns = `trade_id, portfolio_id, user_id, asset_name, action, price, quantity, trade_date, description, created_at`

func scanTrade(row rowScanner) (*models.Trade, error) {
	var t models.Trade
	var action string
	var date, created int64
	if err := row.Scan(&t.TradeID, &t.PortfolioID, &t.UserID, &t.AssetName, &action, &t.Price, &t.Quantity,
		&date, &t.Description, &created); err != nil {
		return nil, err
	}
	t.Action = models.TradeAction(action)
	t.TradeDate = fromMillis(date)
	t.CreatedAt = fromMillis(created)
	return &t, nil
}

// CreateTrade inserts the trade only when its portfolio belongs to trade.UserID.
func (s *TradeStore) CreateTrade(ctx context.Context, t *models.Trade) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (`+tradeColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM portfolios WHERE portfolio_id = ? AND user_id = ?)`,
		t.TradeID, t.PortfolioID, t.UserID, t.AssetName, string(t.Action), t.Price, t.Quantity,
		toMillis(t.TradeDate), t.Description, toMillis(t.CreatedAt),
		t.PortfolioID, t.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("trade %s: %w", t.TradeID, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	return requireRow(res, "portfolio", t.PortfolioID)
}

func (s *TradeStore) GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	t, err := scanTrade(s.db.QueryRowContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ? AND user_id = ?`, tradeID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %s: %w", tradeID, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

func (s *TradeStore) ListTrades(ctx context.Context, userID string, opts interfaces.TradeListOptions) ([]*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = ?`
	args := []any{userID}
	if opts.PortfolioID != "" {
		query += ` AND portfolio_id = ?`
		args = append(args, opts.PortfolioID)
	}
	query += ` ORDER BY trade_date, trade_id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	out := []*models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *TradeStore) UpdateTrade(ctx context.Context, t *models.Trade) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE trades SET price = ?, quantity = ?, trade_date = ?, description = ? WHERE trade_id = ? AND user_id = ?`,
		t.Price, t.Quantity, toMillis(t.TradeDate), t.Description, t.TradeID, t.UserID)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	return requireRow(res, "trade", t.TradeID)
}

func (s *TradeStore) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE trade_id = ? AND user_id = ?`, tradeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	return requireRow(res, "trade", tradeID)
}
