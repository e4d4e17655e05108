// Package common provides shared utilities for stockreport
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for stockreport
type Config struct {
	Environment string        `toml:"environment"`
	Report      ReportConfig  `toml:"report"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ReportConfig holds report generation settings
type ReportConfig struct {
	Symbol     string `toml:"symbol"`
	Interval   string `toml:"interval"`    // SMA interval: 1min, 5min, 15min, 30min, 60min, daily, weekly, monthly
	TimePeriod int    `toml:"time_period"` // SMA window size
	SeriesType string `toml:"series_type"` // close, open, high, low
	OutputDir  string `toml:"output_dir"`
	PageSize   string `toml:"page_size"` // Letter, A4, Legal
	Author     string `toml:"author"`
}

// OutputPath returns the report file path for a symbol inside OutputDir.
func (c *ReportConfig) OutputPath(symbol string) string {
	dir := c.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ReportFileName(symbol))
}

// ReportFileName returns the conventional report file name for a symbol.
func ReportFileName(symbol string) string {
	return fmt.Sprintf("%s_stock_report.pdf", strings.ToUpper(strings.TrimSpace(symbol)))
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"` // requests per minute
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AlphaVantageConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Report: ReportConfig{
			Symbol:     "AAPL",
			Interval:   "60min",
			TimePeriod: 20,
			SeriesType: "close",
			OutputDir:  ".",
			PageSize:   "Letter",
			Author:     "stockreport",
		},
		Clients: ClientsConfig{
			AlphaVantage: AlphaVantageConfig{
				BaseURL:   "https://www.alphavantage.co/query",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "./logs/stockreport.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	config.Report.Symbol = strings.ToUpper(strings.TrimSpace(config.Report.Symbol))

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKREPORT_ENV"); env != "" {
		config.Environment = env
	}

	if symbol := os.Getenv("STOCKREPORT_SYMBOL"); symbol != "" {
		config.Report.Symbol = symbol
	}

	if interval := os.Getenv("STOCKREPORT_INTERVAL"); interval != "" {
		config.Report.Interval = interval
	}

	if dir := os.Getenv("STOCKREPORT_OUTPUT_DIR"); dir != "" {
		config.Report.OutputDir = dir
	}

	if level := os.Getenv("STOCKREPORT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("STOCKREPORT_ALPHAVANTAGE_BASE_URL"); url != "" {
		config.Clients.AlphaVantage.BaseURL = url
	}
}

// ValidateRequired returns the names of required settings that are missing.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if strings.TrimSpace(c.Report.Symbol) == "" {
		missing = append(missing, "report.symbol")
	}
	if strings.TrimSpace(c.Report.Interval) == "" {
		missing = append(missing, "report.interval")
	}
	if strings.TrimSpace(c.Clients.AlphaVantage.BaseURL) == "" {
		missing = append(missing, "clients.alphavantage.base_url")
	}
	return missing
}

// ResolveAPIKey resolves an API key from environment or fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"alphavantage_api_key": {"ALPHAVANTAGE_API_KEY", "STOCKREPORT_ALPHAVANTAGE_API_KEY"},
	}

	// Environment variables take priority over the config file
	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
