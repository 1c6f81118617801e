// Package trade records trades and applies them to portfolio ledgers
package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/ledger"
)

// commitTimeout bounds the ledger write and trade insert once started.
const commitTimeout = 10 * time.Second

// Service implements TradeService
type Service struct {
	storage interfaces.StorageManager
	locker  *ledger.Locker
	logger  *common.Logger
	now     func() time.Time // injectable clock for testing
}

// NewService creates a new trade service. locker must be shared with the
// portfolio and valuation services.
func NewService(storage interfaces.StorageManager, locker *ledger.Locker, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		locker:  locker,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordTrade reconciles the trade against the portfolio ledger, persists the
// new ledger and appends the trade record. The whole cycle holds the
// portfolio lock, so concurrent trades on one portfolio are applied one at a
// time against fresh state.
//
// If the trade record cannot be written the previous ledger is restored.
func (s *Service) RecordTrade(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	action, _ := models.ParseTradeAction(req.Action)

	unlock := s.locker.Lock(req.PortfolioID)
	defer unlock()

	p, err := s.storage.PortfolioStore().GetPortfolio(ctx, userID, req.PortfolioID)
	if err != nil {
		return nil, err
	}

	next, err := ledger.Reconcile(p.Ledger(), ledger.TradeRequest{
		Action:   action,
		Ticker:   req.AssetName,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		s.logger.Info().
			Str("portfolio_id", p.PortfolioID).
			Str("ticker", req.AssetName).
			Str("action", string(action)).
			Str("reason", ledger.RejectionCode(err)).
			Msg("Trade rejected")
		return nil, err
	}

	// From here the ledger write, the trade insert and any restore must run
	// to completion together, so they ignore cancellation of the request.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	now := s.now().UTC()
	previous := p.Clone()
	p.SetLedger(next)
	p.ModifiedAt = now
	if err := s.storage.PortfolioStore().UpdatePortfolio(commitCtx, p); err != nil {
		return nil, fmt.Errorf("failed to update portfolio ledger: %w", err)
	}

	tradeDate := now
	if req.TradeDate != nil {
		tradeDate = req.TradeDate.UTC()
	}
	t := &models.Trade{
		TradeID:     newTradeID(now),
		PortfolioID: p.PortfolioID,
		UserID:      userID,
		AssetName:   req.AssetName,
		Action:      action,
		Price:       req.Price,
		Quantity:    req.Quantity,
		TradeDate:   tradeDate,
		Description: req.Description,
		CreatedAt:   now,
	}
	if err := s.storage.TradeStore().CreateTrade(commitCtx, t); err != nil {
		if rerr := s.storage.PortfolioStore().UpdatePortfolio(commitCtx, previous); rerr != nil {
			s.logger.Error().Err(rerr).
				Str("portfolio_id", p.PortfolioID).
				Msg("Failed to restore ledger after trade insert failure")
		}
		return nil, fmt.Errorf("failed to record trade: %w", err)
	}

	s.logger.Info().
		Str("portfolio_id", p.PortfolioID).
		Str("trade_id", t.TradeID).
		Str("action", string(action)).
		Str("ticker", t.AssetName).
		Int64("quantity", t.Quantity).
		Float64("price", t.Price).
		Float64("cash_balance", p.CashBalance).
		Msg("Trade recorded")

	return &models.TradeResult{Trade: t, Portfolio: p}, nil
}

func (s *Service) GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	return s.storage.TradeStore().GetTrade(ctx, userID, tradeID)
}

// ListTrades returns the user's trades, optionally for one portfolio.
// A portfolio the user does not own is reported as not found.
func (s *Service) ListTrades(ctx context.Context, userID, portfolioID string) ([]*models.Trade, error) {
	if portfolioID != "" {
		if _, err := s.storage.PortfolioStore().GetPortfolio(ctx, userID, portfolioID); err != nil {
			return nil, err
		}
	}
	return s.storage.TradeStore().ListTrades(ctx, userID, interfaces.TradeListOptions{PortfolioID: portfolioID})
}

// UpdateTrade edits the trade record only; the portfolio ledger is not
// re-derived.
func (s *Service) UpdateTrade(ctx context.Context, userID, tradeID string, req models.TradeUpdateRequest) (*models.Trade, error) {
	t, err := s.storage.TradeStore().GetTrade(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(t); err != nil {
		return nil, err
	}
	if err := s.storage.TradeStore().UpdateTrade(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("trade_id", tradeID).Msg("Trade record updated")
	return t, nil
}

// DeleteTrade removes the trade record only.
func (s *Service) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	if err := s.storage.TradeStore().DeleteTrade(ctx, userID, tradeID); err != nil {
		return err
	}
	s.logger.Info().Str("trade_id", tradeID).Msg("Trade record deleted")
	return nil
}

// Ensure Service implements TradeService
var _ interfaces.TradeService = (*Service)(nil)
