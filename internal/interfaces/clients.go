package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// PriceProvider fetches historical OHLCV bars for a batch of tickers.
// The result is keyed by upper-case ticker; tickers the provider has no data
// for are omitted. Transport and upstream failures are *models.ProviderError.
type PriceProvider interface {
	Name() string
	History(ctx context.Context, tickers []string, q models.HistoryQuery) (map[string][]models.PriceBar, error)
}
