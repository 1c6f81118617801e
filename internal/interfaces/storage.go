// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// Store errors shared by every backend.
var (
	// ErrNotFound is returned when a record does not exist or is not owned
	// by the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

// StorageManager coordinates the user, portfolio and trade stores of one backend.
type StorageManager interface {
	UserStore() UserStore
	PortfolioStore() PortfolioStore
	TradeStore() TradeStore

	// Migrate creates or upgrades the backend schema. Safe to call repeatedly.
	Migrate(ctx context.Context) error

	// Lifecycle
	Close() error
}

// UserStore manages user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	// DeleteUser removes the user with all portfolios and trades.
	DeleteUser(ctx context.Context, userID string) error
}

// PortfolioStore manages portfolios. Every call is scoped to the owning user;
// a portfolio owned by someone else is reported as ErrNotFound.
type PortfolioStore interface {
	CreatePortfolio(ctx context.Context, p *models.Portfolio) error
	GetPortfolio(ctx context.Context, userID, portfolioID string) (*models.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]*models.Portfolio, error)
	// UpdatePortfolio replaces name, cash balance and positions.
	UpdatePortfolio(ctx context.Context, p *models.Portfolio) error
	// UpdateLastAmount records a freshly computed total value.
	UpdateLastAmount(ctx context.Context, userID, portfolioID string, amount float64, at time.Time) error
	// DeletePortfolio removes the portfolio and its trades.
	DeletePortfolio(ctx context.Context, userID, portfolioID string) error
	// ListAllPortfolios returns every portfolio across users, for background jobs.
	ListAllPortfolios(ctx context.Context) ([]*models.Portfolio, error)
}

// TradeStore manages trade records.
type TradeStore interface {
	// CreateTrade fails with ErrNotFound when the portfolio is not owned by trade.UserID.
	CreateTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error)
	ListTrades(ctx context.Context, userID string, opts TradeListOptions) ([]*models.Trade, error)
	UpdateTrade(ctx context.Context, trade *models.Trade) error
	DeleteTrade(ctx context.Context, userID, tradeID string) error
}

// TradeListOptions filters ListTrades. Results are ordered by trade date then id.
type TradeListOptions struct {
	PortfolioID string
	Limit       int
}
