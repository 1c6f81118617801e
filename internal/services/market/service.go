// Package market provides price history with provider fallback
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/valuation"
)

// MaxTickers bounds a single batch request.
const MaxTickers = 50

// Service implements MarketService and PriceProvider over a primary provider
// and an optional fallback. The fallback is tried once, only when the primary
// fails with a provider error.
type Service struct {
	primary  interfaces.PriceProvider
	fallback interfaces.PriceProvider
	timeout  time.Duration
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a market service. fallback may be nil.
func NewService(primary, fallback interfaces.PriceProvider, timeout time.Duration, logger *common.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Name reports the primary provider name.
func (s *Service) Name() string {
	return s.primary.Name()
}

// History fetches bars for tickers, bounded by the configured timeout.
func (s *Service) History(ctx context.Context, tickers []string, q models.HistoryQuery) (map[string][]models.PriceBar, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	series, err := s.primary.History(ctx, tickers, q)
	if err == nil {
		s.logger.Debug().
			Str("provider", s.primary.Name()).
			Int("tickers", len(tickers)).
			Int("returned", len(series)).
			Dur("elapsed", time.Since(start)).
			Msg("Price history fetched")
		return series, nil
	}

	var perr *models.ProviderError
	if s.fallback == nil || !errors.As(err, &perr) || ctx.Err() != nil {
		return nil, err
	}

	s.logger.Warn().Err(err).
		Str("primary", s.primary.Name()).
		Str("fallback", s.fallback.Name()).
		Msg("Primary price provider failed, trying fallback")

	series, ferr := s.fallback.History(ctx, tickers, q)
	if ferr != nil {
		s.logger.Warn().Err(ferr).Str("provider", s.fallback.Name()).Msg("Fallback price provider failed")
		return nil, err
	}
	return series, nil
}

// TickerHistory serves raw history for a batch of tickers over a user range.
func (s *Service) TickerHistory(ctx context.Context, tickers []string, r models.RangeRequest) ([]models.TickerHistory, error) {
	normalized, err := NormalizeTickers(tickers)
	if err != nil {
		return nil, err
	}
	if r.Period == "" && r.Start == "" {
		r.Period = "5d"
	}
	q, err := valuation.ResolveRange(r, s.now())
	if err != nil {
		return nil, err
	}

	series, err := s.History(ctx, normalized, q)
	if err != nil {
		return nil, err
	}

	out := make([]models.TickerHistory, 0, len(normalized))
	for _, t := range normalized {
		if bars, ok := series[t]; ok && len(bars) > 0 {
			out = append(out, models.TickerHistory{Ticker: t, Bars: bars})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(normalized, ","), models.ErrNoData)
	}
	return out, nil
}

// NormalizeTickers upper-cases, trims and de-duplicates tickers, preserving order.
func NormalizeTickers(tickers []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, raw := range tickers {
		for _, part := range strings.Split(raw, ",") {
			t := models.NormalizeTicker(part)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, models.NewValidationError("tickers", "at least one ticker is required")
	}
	if len(out) > MaxTickers {
		return nil, models.NewValidationError("tickers", "at most %d tickers per request", MaxTickers)
	}
	return out, nil
}

// Ensure Service implements MarketService and PriceProvider
var (
	_ interfaces.MarketService = (*Service)(nil)
	_ interfaces.PriceProvider = (*Service)(nil)
)
