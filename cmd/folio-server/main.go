package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/server"
	"github.com/bobmcallan/folio/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "folio-server",
	Short: "Portfolio ledger and valuation service",
	Long: `folio-server records share trades against user portfolios and values
them from market price history over a REST API.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the storage schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("folio-server %s\n", common.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $FOLIO_CONFIG or folio.toml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	config, logger, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}

	common.PrintBanner(config, logger)

	a, err := app.NewApp(context.Background(), config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize app")
		return err
	}

	if err := a.StartScheduler(); err != nil {
		a.Close()
		return err
	}

	srv := server.NewServer(a)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("HTTP server failed")
		a.Close()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := a.Close(); err != nil {
		logger.Warn().Err(err).Msg("Storage close failed")
	}

	common.PrintShutdownBanner(logger)
	return nil
}

func migrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	config, logger, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}

	store, err := storage.NewStorageManager(ctx, logger, config)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", config.Storage.Backend, err)
	}
	logger.Info().Str("backend", config.Storage.Backend).Msg("Schema up to date")
	return nil
}
