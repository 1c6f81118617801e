package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// PortfolioStore implements interfaces.PortfolioStore using SurrealDB.
type PortfolioStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewPortfolioStore(db *surrealdb.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{db: db, logger: logger}
}

func (s *PortfolioStore) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	sql := "CREATE type::record('portfolio', $id) CONTENT $portfolio"
	vars := map[string]any{"id": p.PortfolioID, "portfolio": newPortfolioRow(p)}

	if _, err := surrealdb.Query[[]portfolioRow](ctx, s.db, sql, vars); err != nil {
		if isConflictError(err) {
			return fmt.Errorf("portfolio %s: %w", p.PortfolioID, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to create portfolio: %w", err)
	}
	return nil
}

func (s *PortfolioStore) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	rows, err := queryRows[portfolioRow](ctx, s.db,
		"SELECT * FROM type::record('portfolio', $id) WHERE user_id = $user_id",
		map[string]any{"id": portfolioID, "user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to select portfolio: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("portfolio %s: %w", portfolioID, interfaces.ErrNotFound)
	}
	return rows[0].toModel()
}

func (s *PortfolioStore) ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	return s.list(ctx,
		"SELECT * FROM portfolio WHERE user_id = $user_id ORDER BY created_at ASC",
		map[string]any{"user_id": userID})
}

func (s *PortfolioStore) ListAllPortfolios(ctx context.Context) ([]*models.Portfolio, error) {
	return s.list(ctx, "SELECT * FROM portfolio ORDER BY created_at ASC", nil)
}

func (s *PortfolioStore) list(ctx context.Context, sql string, vars map[string]any) ([]*models.Portfolio, error) {
	rows, err := queryRows[portfolioRow](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	out := make([]*models.Portfolio, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("portfolio %s: %w", row.PortfolioID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PortfolioStore) UpdatePortfolio(ctx context.Context, p *models.Portfolio) error {
	tickers, sizes := p.Positions.Encode()
	sql := `UPDATE type::record('portfolio', $id) SET
		name = $name, cash_balance = $cash_balance,
		positions = $positions, positions_size = $positions_size,
		modified_at = $modified_at
		WHERE user_id = $user_id RETURN AFTER`
	vars := map[string]any{
		"id":             p.PortfolioID,
		"user_id":        p.UserID,
		"name":           p.Name,
		"cash_balance":   p.CashBalance,
		"positions":      tickers,
		"positions_size": sizes,
		"modified_at":    p.ModifiedAt.UTC(),
	}
	return s.update(ctx, p.PortfolioID, sql, vars)
}

func (s *PortfolioStore) UpdateLastAmount(ctx context.Context, userID, portfolioID string, amount float64, at time.Time) error {
	sql := `UPDATE type::record('portfolio', $id) SET
		last_amount = $amount, last_valued_at = $at
		WHERE user_id = $user_id RETURN AFTER`
	vars := map[string]any{
		"id":      portfolioID,
		"user_id": userID,
		"amount":  amount,
		"at":      at.UTC(),
	}
	return s.update(ctx, portfolioID, sql, vars)
}

func (s *PortfolioStore) update(ctx context.Context, portfolioID, sql string, vars map[string]any) error {
	rows, err := queryRows[portfolioRow](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("portfolio %s: %w", portfolioID, interfaces.ErrNotFound)
	}
	return nil
}

func (s *PortfolioStore) DeletePortfolio(ctx context.Context, userID, portfolioID string) error {
	vars := map[string]any{"id": portfolioID, "user_id": userID}
	rows, err := queryRows[portfolioRow](ctx, s.db,
		"DELETE type::record('portfolio', $id) WHERE user_id = $user_id RETURN BEFORE", vars)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("portfolio %s: %w", portfolioID, interfaces.ErrNotFound)
	}

	if _, err := surrealdb.Query[any](ctx, s.db,
		"DELETE trade WHERE portfolio_id = $id AND user_id = $user_id", vars); err != nil {
		return fmt.Errorf("failed to delete portfolio trades: %w", err)
	}
	return nil
}

var _ interfaces.PortfolioStore = (*PortfolioStore)(nil)
