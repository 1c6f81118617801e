// Package portfolio provides portfolio management services
package portfolio

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/ledger"
)

// Service implements PortfolioService
type Service struct {
	storage interfaces.StorageManager
	locker  *ledger.Locker
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new portfolio service. locker must be the same
// instance the trade and valuation services use.
func NewService(storage interfaces.StorageManager, locker *ledger.Locker, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
	}
}

// CreatePortfolio opens a portfolio. Cash defaults to the initial amount and
// the last amount starts equal to it.
func (s *Service) CreatePortfolio(ctx context.Context, userID string, req models.CreatePortfolioRequest) (*models.Portfolio, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cash := req.InitialAmount
	if req.CashBalance != nil {
		cash = *req.CashBalance
	}
	positions := req.Positions.Clone()
	if positions == nil {
		positions = models.Positions{}
	}

	now := s.now().UTC()
	p := &models.Portfolio{
		PortfolioID:   uuid.New().String(),
		UserID:        userID,
		Name:          req.Name,
		InitialAmount: req.InitialAmount,
		LastAmount:    req.InitialAmount,
		CashBalance:   cash,
		Positions:     positions,
		CreatedAt:     now,
		ModifiedAt:    now,
	}
	if err := s.storage.PortfolioStore().CreatePortfolio(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("portfolio_id", p.PortfolioID).
		Float64("initial_amount", p.InitialAmount).
		Int("positions", len(p.Positions)).
		Msg("Portfolio created")
	return p, nil
}

func (s *Service) GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error) {
	return s.storage.PortfolioStore().GetPortfolio(ctx, userID, portfolioID)
}

func (s *Service) ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error) {
	return s.storage.PortfolioStore().ListPortfolios(ctx, userID)
}

// UpdatePortfolio applies a direct edit under the portfolio lock so it cannot
// interleave with a trade's read-modify-write.
func (s *Service) UpdatePortfolio(ctx context.Context, userID, portfolioID string, req models.UpdatePortfolioRequest) (*models.Portfolio, error) {
	unlock := s.locker.Lock(portfolioID)
	defer unlock()

	p, err := s.storage.PortfolioStore().GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(p); err != nil {
		return nil, err
	}
	p.ModifiedAt = s.now().UTC()

	if err := s.storage.PortfolioStore().UpdatePortfolio(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str("portfolio_id", portfolioID).Msg("Portfolio updated")
	return p, nil
}

// DeletePortfolio removes the portfolio and its trades.
func (s *Service) DeletePortfolio(ctx context.Context, userID, portfolioID string) error {
	unlock := s.locker.Lock(portfolioID)
	defer unlock()

	if err := s.storage.PortfolioStore().DeletePortfolio(ctx, userID, portfolioID); err != nil {
		return err
	}
	s.logger.Info().Str("portfolio_id", portfolioID).Msg("Portfolio deleted")
	return nil
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
