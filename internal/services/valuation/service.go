package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/ledger"
)

// Service implements ValuationService
type Service struct {
	storage  interfaces.StorageManager
	provider interfaces.PriceProvider
	locker   *ledger.Locker
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a new valuation service
func NewService(storage interfaces.StorageManager, provider interfaces.PriceProvider, locker *ledger.Locker, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		provider: provider,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// Value computes the value curve of a portfolio over the requested range and
// records the latest total as the portfolio's last amount.
//
// The price fetch runs without holding the portfolio lock. The write-back
// reacquires it briefly; a failed write-back is logged and not returned.
func (s *Service) Value(ctx context.Context, userID, portfolioID string, r models.RangeRequest) (*models.ValuationResult, error) {
	_, result, err := s.value(ctx, userID, portfolioID, r)
	return result, err
}

func (s *Service) value(ctx context.Context, userID, portfolioID string, r models.RangeRequest) (*models.Portfolio, *models.ValuationResult, error) {
	q, err := ResolveRange(r, s.now())
	if err != nil {
		return nil, nil, err
	}

	p, err := s.storage.PortfolioStore().GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.valueSnapshot(ctx, p, q)
	if err != nil {
		return nil, nil, err
	}

	s.writeBack(ctx, userID, portfolioID, result.TotalAmount)
	return p, result, nil
}

func (s *Service) valueSnapshot(ctx context.Context, p *models.Portfolio, q models.HistoryQuery) (*models.ValuationResult, error) {
	result := &models.ValuationResult{
		PortfolioID:   p.PortfolioID,
		Start:         q.Start,
		End:           q.End,
		Interval:      q.Interval,
		Dates:         []time.Time{},
		Values:        []float64{},
		CashBalance:   p.CashBalance,
		InitialAmount: p.InitialAmount,
	}

	if len(p.Positions) > 0 {
		phaseStart := time.Now()
		series, err := s.provider.History(ctx, p.Positions.Tickers(), q)
		if err != nil {
			var perr *models.ProviderError
			if !errors.As(err, &perr) && !errors.Is(err, models.ErrNoData) {
				err = &models.ProviderError{Provider: s.provider.Name(), Err: err}
			}
			return nil, err
		}

		curve, err := Aggregate(p.Positions, series)
		if err != nil {
			return nil, fmt.Errorf("portfolio %s: %w", p.PortfolioID, err)
		}
		if len(curve.Missing) > 0 {
			s.logger.Warn().
				Str("portfolio_id", p.PortfolioID).
				Strs("tickers", curve.Missing).
				Msg("No price data for some positions, excluded from valuation")
		}

		result.Dates = curve.Dates
		result.Values = curve.Values
		result.MissingTickers = curve.Missing
		result.LastValue = curve.Last()
		result.Stats = Summarize(curve.Values)

		s.logger.Debug().
			Str("portfolio_id", p.PortfolioID).
			Int("positions", len(p.Positions)).
			Int("points", len(curve.Values)).
			Dur("elapsed", time.Since(phaseStart)).
			Msg("Valuation computed")
	}

	result.TotalAmount = TotalAmount(result.LastValue, p.CashBalance)
	result.EvolutionPct, result.EvolutionDefined = Evolution(result.LastValue, p.CashBalance, p.InitialAmount)
	return result, nil
}

func (s *Service) writeBack(ctx context.Context, userID, portfolioID string, amount float64) {
	unlock := s.locker.Lock(portfolioID)
	defer unlock()

	if err := s.storage.PortfolioStore().UpdateLastAmount(ctx, userID, portfolioID, amount, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).
			Str("portfolio_id", portfolioID).
			Float64("last_amount", amount).
			Msg("Failed to record portfolio last amount")
	}
}

// Chart renders the valuation of a portfolio as a PNG.
func (s *Service) Chart(ctx context.Context, userID, portfolioID string, r models.RangeRequest) ([]byte, error) {
	p, v, err := s.value(ctx, userID, portfolioID, r)
	if err != nil {
		return nil, err
	}
	if len(v.Dates) < 2 {
		return nil, fmt.Errorf("portfolio %s: not enough points to chart: %w", portfolioID, models.ErrNoData)
	}
	return RenderValuationChart(p.Name, v)
}

// RevalueAll refreshes last amount for every portfolio holding positions and
// returns how many were updated. Individual failures are logged and skipped.
func (s *Service) RevalueAll(ctx context.Context, period string) (int, error) {
	q, err := ResolveRange(models.RangeRequest{Period: period}, s.now())
	if err != nil {
		return 0, err
	}

	portfolios, err := s.storage.PortfolioStore().ListAllPortfolios(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list portfolios: %w", err)
	}

	updated := 0
	for _, p := range portfolios {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		if len(p.Positions) == 0 {
			continue
		}
		result, err := s.valueSnapshot(ctx, p, q)
		if err != nil {
			s.logger.Warn().Err(err).Str("portfolio_id", p.PortfolioID).Msg("Revalue: skipped portfolio")
			continue
		}
		s.writeBack(ctx, p.UserID, p.PortfolioID, result.TotalAmount)
		updated++
	}
	return updated, nil
}

// Ensure Service implements ValuationService
var _ interfaces.ValuationService = (*Service)(nil)
