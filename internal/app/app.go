// Package app wires configuration, storage, price providers and services
// into a runnable Folio instance.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/folio/internal/clients/eodhd"
	"github.com/bobmcallan/folio/internal/clients/yahoo"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/services/ledger"
	"github.com/bobmcallan/folio/internal/services/market"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/services/trade"
	"github.com/bobmcallan/folio/internal/services/user"
	"github.com/bobmcallan/folio/internal/services/valuation"
	"github.com/bobmcallan/folio/internal/storage"
)

// Provider names accepted by clients.provider and clients.fallback.
const (
	ProviderYahoo = "yahoo"
	ProviderEODHD = "eodhd"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Locker           *ledger.Locker
	PriceProvider    interfaces.PriceProvider
	MarketService    interfaces.MarketService
	UserService      interfaces.UserService
	PortfolioService interfaces.PortfolioService
	TradeService     interfaces.TradeService
	ValuationService interfaces.ValuationService
	StartupTime      time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the explicit path, FOLIO_CONFIG,
// folio.toml next to the binary, then config/folio.toml for development.
// A path that does not exist is skipped by LoadConfig.
func ResolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("FOLIO_CONFIG"); env != "" {
		return env
	}
	candidate := filepath.Join(getBinaryDir(), "folio.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return "config/folio.toml"
}

// LoadConfig loads the configuration and builds the matching logger.
func LoadConfig(configPath string) (*common.Config, *common.Logger, error) {
	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, common.NewLoggerFromConfig(config.Logging), nil
}

// NewApp initializes storage, price providers and services from config.
func NewApp(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	if missing := config.ValidateRequired(); len(missing) > 0 {
		for _, m := range missing {
			logger.Warn().Str("setting", m).Msg("Required setting missing or left at default")
		}
		if config.IsProduction() {
			return nil, fmt.Errorf("missing required settings: %v", missing)
		}
	}
	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret must not be empty")
	}

	storageManager, err := storage.NewStorageManager(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	primary, err := newPriceProvider(config.Clients.Provider, config, logger)
	if err != nil {
		storageManager.Close()
		return nil, fmt.Errorf("failed to initialize price provider: %w", err)
	}

	var fallback interfaces.PriceProvider
	if name := config.Clients.Fallback; name != "" && name != primary.Name() {
		fallback, err = newPriceProvider(name, config, logger)
		if err != nil {
			logger.Warn().Err(err).Str("provider", name).Msg("Fallback price provider unavailable")
			fallback = nil
		}
	}

	locker := ledger.NewLocker()
	marketService := market.NewService(primary, fallback, config.Clients.GetTimeout(), logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Locker:           locker,
		PriceProvider:    marketService,
		MarketService:    marketService,
		UserService:      user.NewService(storageManager, logger),
		PortfolioService: portfolio.NewService(storageManager, locker, logger),
		TradeService:     trade.NewService(storageManager, locker, logger),
		ValuationService: valuation.NewService(storageManager, marketService, locker, logger),
		StartupTime:      startupStart,
	}

	logger.Info().
		Str("storage", config.Storage.Backend).
		Str("provider", primary.Name()).
		Bool("fallback", fallback != nil).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// newPriceProvider builds the named provider client.
func newPriceProvider(name string, config *common.Config, logger *common.Logger) (interfaces.PriceProvider, error) {
	switch name {
	case "", ProviderYahoo:
		c := config.Clients.Yahoo
		opts := []yahoo.ClientOption{
			yahoo.WithLogger(logger),
			yahoo.WithRateLimit(c.RateLimit),
			yahoo.WithTimeout(c.GetTimeout()),
			yahoo.WithConcurrency(config.Clients.Concurrency),
		}
		if c.BaseURL != "" {
			opts = append(opts, yahoo.WithBaseURL(c.BaseURL))
		}
		return yahoo.NewClient(opts...), nil

	case ProviderEODHD:
		c := config.Clients.EODHD
		if c.APIKey == "" {
			return nil, fmt.Errorf("eodhd api key not configured")
		}
		opts := []eodhd.ClientOption{
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(c.RateLimit),
			eodhd.WithTimeout(c.GetTimeout()),
			eodhd.WithConcurrency(config.Clients.Concurrency),
		}
		if c.BaseURL != "" {
			opts = append(opts, eodhd.WithBaseURL(c.BaseURL))
		}
		if c.Exchange != "" {
			opts = append(opts, eodhd.WithExchange(c.Exchange))
		}
		return eodhd.NewClient(c.APIKey, opts...), nil

	default:
		return nil, fmt.Errorf("unknown price provider: %s (supported: %s, %s)", name, ProviderYahoo, ProviderEODHD)
	}
}

// StartScheduler registers background jobs. A no-op when no schedule is configured.
func (a *App) StartScheduler() error {
	spec := a.Config.Scheduler.RevalueSchedule
	if spec == "" {
		a.Logger.Info().Msg("Revalue scheduler disabled")
		return nil
	}

	s := NewScheduler(a.Logger)
	if err := s.AddJob(spec, NewRevalueJob(a.ValuationService, a.Config.Scheduler.RevaluePeriod, a.Logger)); err != nil {
		return fmt.Errorf("failed to schedule revalue job: %w", err)
	}
	s.Start()
	a.scheduler = s
	return nil
}

// Close stops background jobs and releases storage.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
