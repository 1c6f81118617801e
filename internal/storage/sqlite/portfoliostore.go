package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// PortfolioStore implements interfaces.PortfolioStore. Positions are kept in
// the two comma-separated columns positions and positions_size.
type PortfolioStore struct {
	db     *sql.DB
	logger *common.Logger
}

// NewPortfolioStore creates a portfolio store over db.
func NewPortfolioStore(db *sql.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{db: db, logger: logger}
}

const portfolioColumns = `portfolio_id, user_id, name, initial_amount, last_amount, cash_balance,
	positions, positions_size, last_valued_at, created_at, modified_at`

func scanPortfolio(row rowScanner) (*models.Portfolio, error) {
	var p models.Portfolio
	var tickers, sizes string
	var valued sql.NullInt64
	var created, modified int64
	if err := row.Scan(&p.PortfolioID, &p.UserID, &p.Name, &p.InitialAmount, &p.LastAmount, &p.CashBalance,
		&tickers, &sizes, &valued, &created, &modified); err != nil {
		return nil, err
	}
	positions, err := models.ParsePositions(tickers, sizes)
	if err != nil {
		return nil, fmt.Errorf("portfolio %s has corrupt positions: %w", p.PortfolioID, err)
	}
	p.Positions = positions
	if valued.Valid {
		t := fromMillis(valued.Int64)
		p.LastValuedAt = &t
	}
	p.CreatedAt = fromMillis(created)
	p.ModifiedAt = fromMillis(modified)
	return &p, nil
}

func (s *PortfolioStore) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	tickers, sizes := p.Positions.Encode()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolios (`+portfolioColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PortfolioID, p.UserID, p.Name, p.InitialAmount, p.LastAmount, p.CashBalance,
		tickers, sizes, nullableMillis(p.LastValuedAt), toMillis(p.CreatedAt), toMillis(p.ModifiedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("portfolio %s: %w", p.PortfolioID, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

func (s *PortfolioStore) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	p, err := scanPortfolio(s.db.QueryRowContext(ctx,
		`SELECT `+portfolioColumns+` FROM portfolios WHERE portfolio_id = ? AND user_id = ?`, portfolioID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("portfolio %s: %w", portfolioID, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return p, nil
}

func (s *PortfolioStore) ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	return s.list(ctx, `SELECT `+portfolioColumns+` FROM portfolios WHERE user_id = ? ORDER BY created_at, portfolio_id`, userID)
}

func (s *PortfolioStore) ListAllPortfolios(ctx context.Context) ([]*models.Portfolio, error) {
	return s.list(ctx, `SELECT `+portfolioColumns+` FROM portfolios ORDER BY user_id, created_at`)
}

func (s *PortfolioStore) list(ctx context.Context, query string, args ...any) ([]*models.Portfolio, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	out := []*models.Portfolio{}
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PortfolioStore) UpdatePortfolio(ctx context.Context, p *models.Portfolio) error {
	tickers, sizes := p.Positions.Encode()
	res, err := s.db.ExecContext(ctx,
		`UPDATE portfolios SET name = ?, cash_balance = ?, positions = ?, positions_size = ?, modified_at = ?
		 WHERE portfolio_id = ? AND user_id = ?`,
		p.Name, p.CashBalance, tickers, sizes, toMillis(p.ModifiedAt), p.PortfolioID, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio: %w", err)
	}
	return requireRow(res, "portfolio", p.PortfolioID)
}

func (s *PortfolioStore) UpdateLastAmount(ctx context.Context, userID, portfolioID string, amount float64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE portfolios SET last_amount = ?, last_valued_at = ? WHERE portfolio_id = ? AND user_id = ?`,
		amount, toMillis(at), portfolioID, userID)
	if err != nil {
		return fmt.Errorf("failed to update last amount: %w", err)
	}
	return requireRow(res, "portfolio", portfolioID)
}

func (s *PortfolioStore) DeletePortfolio(ctx context.Context, userID, portfolioID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM portfolios WHERE portfolio_id = ? AND user_id = ?`, portfolioID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	if err := requireRow(res, "portfolio", portfolioID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE portfolio_id = ?`, portfolioID); err != nil {
		return fmt.Errorf("failed to delete portfolio trades: %w", err)
	}
	return tx.Commit()
}

func nullableMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}
