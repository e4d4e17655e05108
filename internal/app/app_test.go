package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/stockreport/internal/clients/alphavantage"
	"github.com/bobmcallan/stockreport/internal/services/report"
)

const (
	quoteFixture = `{"Global Quote": {
		"01. symbol": "AAPL", "02. open": "149.00", "03. high": "151.00", "04. low": "148.00",
		"05. price": "150.00", "06. volume": "51234567", "07. latest trading day": "2024-01-02",
		"08. previous close": "148.50", "09. change": "1.50", "10. change percent": "1.0101%"}}`

	overviewFixture = `{"Symbol": "AAPL", "Name": "Apple Inc", "Exchange": "NASDAQ", "Sector": "TECHNOLOGY",
		"Industry": "ELECTRONIC COMPUTERS", "MarketCapitalization": "2500000000000", "PERatio": "28.5",
		"DividendYield": "0.0055", "EPS": "6.05", "Description": "Apple designs consumer electronics."}`

	smaFixture = `{"Meta Data": {"1: Symbol": "AAPL"}, "Technical Analysis: SMA": {
		"2024-01-02 16:00": {"SMA": "150.1000"},
		"2024-01-02 14:00": {"SMA": "149.5000"},
		"2024-01-02 15:00": {"SMA": "149.8000"}}}`
)

// newFixtureServer answers each Alpha Vantage function with the given body.
func newFixtureServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Query().Get("function")]
		if !ok {
			http.Error(w, "unknown function", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()

	config := `
[report]
symbol = "aapl"
output_dir = "` + filepath.Join(dir, "reports") + `"

[clients.alphavantage]
base_url = "` + baseURL + `"
timeout = "5s"

[logging]
level = "error"
outputs = ["console"]
`
	configPath := filepath.Join(dir, "stockreport.toml")
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestNewApp_InitializesAllServices(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "test-key")
	configPath := writeTestConfig(t, "http://127.0.0.1:1")

	a, err := NewApp(configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if a.Config == nil {
		t.Error("Config is nil")
	}
	if a.Logger == nil {
		t.Error("Logger is nil")
	}
	if a.MarketClient == nil {
		t.Error("MarketClient is nil")
	}
	if a.ChartRenderer == nil {
		t.Error("ChartRenderer is nil")
	}
	if a.DocumentWriter == nil {
		t.Error("DocumentWriter is nil")
	}
	if a.ReportService == nil {
		t.Error("ReportService is nil")
	}
	if a.RunID == "" {
		t.Error("RunID is empty")
	}
	if a.StartupTime.IsZero() {
		t.Error("StartupTime is zero")
	}
	if a.Config.Report.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", a.Config.Report.Symbol)
	}
}

func TestNewApp_MissingAPIKey(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "")
	t.Setenv("STOCKREPORT_ALPHAVANTAGE_API_KEY", "")
	configPath := writeTestConfig(t, "http://127.0.0.1:1")

	if _, err := NewApp(configPath); err == nil {
		t.Fatal("expected error when API key is not configured")
	}
}

func TestNewApp_InvalidPageSize(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "test-key")
	dir := t.TempDir()
	configPath := filepath.Join(dir, "stockreport.toml")
	if err := os.WriteFile(configPath, []byte("[report]\npage_size = \"B7\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewApp(configPath); err == nil {
		t.Fatal("expected error for unsupported page size")
	}
}

func TestNewApp_Overrides(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "test-key")
	t.Setenv("STOCKREPORT_SYMBOL", "IBM")
	configPath := writeTestConfig(t, "http://127.0.0.1:1")

	a, err := NewApp(configPath, WithSymbol(" msft "), WithInterval("daily"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if a.Config.Report.Symbol != "MSFT" {
		t.Errorf("Symbol = %q, want MSFT", a.Config.Report.Symbol)
	}
	if a.Config.Report.Interval != "daily" {
		t.Errorf("Interval = %q, want daily", a.Config.Report.Interval)
	}

	// Empty overrides keep the loaded values
	a, err = NewApp(configPath, WithSymbol(""), WithInterval(""))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if a.Config.Report.Symbol != "IBM" {
		t.Errorf("Symbol = %q, want IBM from environment", a.Config.Report.Symbol)
	}
	if a.Config.Report.Interval != "60min" {
		t.Errorf("Interval = %q, want default 60min", a.Config.Report.Interval)
	}
}

func TestRun_WritesReport(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "test-key")
	srv := newFixtureServer(t, map[string]string{
		"GLOBAL_QUOTE": quoteFixture,
		"OVERVIEW":     overviewFixture,
		"SMA":          smaFixture,
	})

	a, err := NewApp(writeTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	result, err := a.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := filepath.Join(a.Config.Report.OutputDir, "AAPL_stock_report.pdf")
	if result.Path != want {
		t.Errorf("Path = %q, want %q", result.Path, want)
	}
	if result.Pages < 3 {
		t.Errorf("Pages = %d, want at least 3", result.Pages)
	}
	if result.IndicatorPoints != 3 {
		t.Errorf("IndicatorPoints = %d, want 3", result.IndicatorPoints)
	}
	if !result.ChartIncluded {
		t.Error("expected chart to be included")
	}

	info, err := os.Stat(want)
	if err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	if info.Size() != result.Bytes {
		t.Errorf("file size %d, result bytes %d", info.Size(), result.Bytes)
	}
	if code := ExitCode(err); code != ExitOK {
		t.Errorf("ExitCode = %d, want %d", code, ExitOK)
	}
}

func TestRun_IndicatorNoticeStillWritesReport(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "test-key")
	srv := newFixtureServer(t, map[string]string{
		"GLOBAL_QUOTE": quoteFixture,
		"OVERVIEW":     overviewFixture,
		"SMA":          `{"Note": "API call frequency exceeded"}`,
	})

	a, err := NewApp(writeTestConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	result, err := a.Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ChartIncluded {
		t.Error("expected no chart")
	}
	if result.IndicatorError == "" {
		t.Error("expected indicator error to be recorded")
	}
	if _, err := os.Stat(result.Path); err != nil {
		t.Errorf("report file missing: %v", err)
	}
}

func TestRun_UnknownSymbolInsufficientData(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "test-key")
	srv := newFixtureServer(t, map[string]string{
		"GLOBAL_QUOTE": `{"Global Quote": {}}`,
		"OVERVIEW":     `{}`,
		"SMA":          `{}`,
	})

	a, err := NewApp(writeTestConfig(t, srv.URL), WithSymbol("ZZZZ"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "ZZZZ_stock_report.pdf")
	_, err = a.Run(context.Background(), out)
	if !errors.Is(err, report.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if !errors.Is(err, alphavantage.ErrNoData) {
		t.Errorf("expected cause to match ErrNoData, got %v", err)
	}
	if code := ExitCode(err); code != ExitInsufficientData {
		t.Errorf("ExitCode = %d, want %d", code, ExitInsufficientData)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no report file should be written")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"insufficient", fmt.Errorf("run: %w", report.ErrInsufficientData), ExitInsufficientData},
		{"write failure", errors.New("write report: disk full"), ExitFailure},
		{"cancelled", context.Canceled, ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: ExitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "test-key")
	a, err := NewApp(writeTestConfig(t, "http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if got := a.OutputPath("custom.pdf"); got != "custom.pdf" {
		t.Errorf("OutputPath(custom) = %q", got)
	}
	want := filepath.Join(a.Config.Report.OutputDir, "AAPL_stock_report.pdf")
	if got := a.OutputPath(""); got != want {
		t.Errorf("OutputPath('') = %q, want %q", got, want)
	}
}
