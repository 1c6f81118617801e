package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// UserService manages registration, credentials and profiles.
type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// PortfolioService manages portfolios owned by a user.
type PortfolioService interface {
	CreatePortfolio(ctx context.Context, userID string, req models.CreatePortfolioRequest) (*models.Portfolio, error)
	GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error)
	UpdatePortfolio(ctx context.Context, userID, portfolioID string, req models.UpdatePortfolioRequest) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, userID, portfolioID string) error
}

// TradeService records trades and applies them to portfolio ledgers.
type TradeService interface {
	RecordTrade(ctx context.Context, userID string, req models.TradeRequest) (*models.TradeResult, error)
	GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error)
	ListTrades(ctx context.Context, userID, portfolioID string) ([]*models.Trade, error)
	UpdateTrade(ctx context.Context, userID, tradeID string, req models.TradeUpdateRequest) (*models.Trade, error)
	DeleteTrade(ctx context.Context, userID, tradeID string) error
}

// MarketService serves raw price history.
type MarketService interface {
	TickerHistory(ctx context.Context, tickers []string, r models.RangeRequest) ([]models.TickerHistory, error)
}

// ValuationService values portfolios over time.
type ValuationService interface {
	Value(ctx context.Context, userID, portfolioID string, r models.RangeRequest) (*models.ValuationResult, error)
	Chart(ctx context.Context, userID, portfolioID string, r models.RangeRequest) ([]byte, error)
	RevalueAll(ctx context.Context, period string) (int, error)
}
