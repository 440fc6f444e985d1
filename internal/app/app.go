// Package app wires configuration, storage, clients and services into one
// application core shared by the server binary and the tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/foliotracker/folio/internal/clients/gemini"
	"github.com/foliotracker/folio/internal/clients/yahoo"
	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/interfaces"
	"github.com/foliotracker/folio/internal/services/ledger"
	"github.com/foliotracker/folio/internal/services/price"
	"github.com/foliotracker/folio/internal/services/valuation"
	"github.com/foliotracker/folio/internal/storage"
)

// App holds all initialized services and clients. It is the shared core
// used by cmd/folio-server and the handler tests.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	YahooClient      *yahoo.Client
	GeminiClient     interfaces.GenerativeClient
	LedgerService    interfaces.LedgerService
	PriceService     interfaces.PriceService
	ValuationService interfaces.ValuationService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage, clients and services.
// configPath may be empty, in which case FOLIO_CONFIG and the binary
// directory are checked.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	var geminiClient interfaces.GenerativeClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - insights will be unavailable")
		} else {
			geminiClient = client
		}
	}

	ledgerService := ledger.NewService(storageManager, logger)
	priceService := price.NewService(yahooClient, yahooClient, config.ReportingCurrency, config.Clients.Yahoo.GetTimeout(), logger)
	valuationService := valuation.NewService(ledgerService, priceService, storageManager.SnapshotStore(), geminiClient, config.ReportingCurrency, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		YahooClient:      yahooClient,
		GeminiClient:     geminiClient,
		LedgerService:    ledgerService,
		PriceService:     priceService,
		ValuationService: valuationService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, close clients, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.GeminiClient != nil {
		a.GeminiClient.Close()
		a.GeminiClient = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
