// Package app wires configuration, clients and services for a report run
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stockreport/internal/clients/alphavantage"
	"github.com/bobmcallan/stockreport/internal/common"
	"github.com/bobmcallan/stockreport/internal/interfaces"
	"github.com/bobmcallan/stockreport/internal/models"
	"github.com/bobmcallan/stockreport/internal/services/chart"
	"github.com/bobmcallan/stockreport/internal/services/document"
	"github.com/bobmcallan/stockreport/internal/services/report"
)

// Process exit codes
const (
	ExitOK               = 0
	ExitConfig           = 1
	ExitInsufficientData = 2
	ExitFailure          = 3
)

// Override adjusts the loaded configuration before services are built.
// Command-line flags are applied this way so they win over file and env values.
type Override func(*common.Config)

// WithSymbol overrides the report symbol
func WithSymbol(symbol string) Override {
	return func(c *common.Config) {
		if s := strings.ToUpper(strings.TrimSpace(symbol)); s != "" {
			c.Report.Symbol = s
		}
	}
}

// WithInterval overrides the SMA interval
func WithInterval(interval string) Override {
	return func(c *common.Config) {
		if interval != "" {
			c.Report.Interval = interval
		}
	}
}

// App holds the initialized clients and services for one run.
type App struct {
	Config         *common.Config
	Logger         *common.Logger
	MarketClient   interfaces.MarketDataClient
	ChartRenderer  interfaces.ChartRenderer
	DocumentWriter interfaces.DocumentWriter
	ReportService  interfaces.ReportService
	RunID          string
	StartupTime    time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, STOCKREPORT_CONFIG, the binary
// directory, then the development fallback.
func resolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("STOCKREPORT_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "stockreport.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockreport.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes the client and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string, overrides ...Override) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	for _, o := range overrides {
		o(config)
	}

	if missing := config.ValidateRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	// Tag every log line of this run
	runID := uuid.New().String()
	logger := common.NewLoggerFromConfig(config.Logging).WithCorrelationId(runID)

	apiKey, err := common.ResolveAPIKey("alphavantage_api_key", config.Clients.AlphaVantage.APIKey)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage API key not configured (set ALPHAVANTAGE_API_KEY): %w", err)
	}

	avConfig := config.Clients.AlphaVantage
	client := alphavantage.NewClient(apiKey,
		alphavantage.WithBaseURL(avConfig.BaseURL),
		alphavantage.WithLogger(logger),
		alphavantage.WithRateLimit(avConfig.RateLimit),
		alphavantage.WithTimeout(avConfig.GetTimeout()),
		alphavantage.WithSMAParams(config.Report.TimePeriod, config.Report.SeriesType),
	)

	renderer := chart.NewRenderer(logger)

	writer, err := document.NewWriter(config.Report.PageSize, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document writer: %w", err)
	}

	reportService := report.NewService(client, renderer, writer, config.Report, logger)

	a := &App{
		Config:         config,
		Logger:         logger,
		MarketClient:   client,
		ChartRenderer:  renderer,
		DocumentWriter: writer,
		ReportService:  reportService,
		RunID:          runID,
		StartupTime:    startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// OutputPath returns outputPath, or the configured default for the report symbol.
func (a *App) OutputPath(outputPath string) string {
	if outputPath != "" {
		return outputPath
	}
	return a.Config.Report.OutputPath(a.Config.Report.Symbol)
}

// Run generates the report for the configured symbol.
func (a *App) Run(ctx context.Context, outputPath string) (*models.ReportResult, error) {
	return a.ReportService.GenerateReport(ctx, a.Config.Report.Symbol, a.OutputPath(outputPath))
}

// ExitCode maps a Run error onto the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, report.ErrInsufficientData):
		return ExitInsufficientData
	default:
		return ExitFailure
	}
}
