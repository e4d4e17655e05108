// Package report assembles and generates stock reports
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/stockreport/internal/common"
	"github.com/bobmcallan/stockreport/internal/interfaces"
	"github.com/bobmcallan/stockreport/internal/models"
)

// ErrInsufficientData is matched when the quote or company profile is missing
// and no report can be produced.
var ErrInsufficientData = errors.New("insufficient data to generate the report")

// InsufficientDataError records why the required data was unavailable
type InsufficientDataError struct {
	Symbol     string
	QuoteErr   error
	ProfileErr error
}

func (e *InsufficientDataError) Error() string {
	var parts []string
	if e.QuoteErr != nil {
		parts = append(parts, "quote: "+e.QuoteErr.Error())
	}
	if e.ProfileErr != nil {
		parts = append(parts, "company profile: "+e.ProfileErr.Error())
	}
	return fmt.Sprintf("%s for %s (%s)", ErrInsufficientData.Error(), e.Symbol, strings.Join(parts, "; "))
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

func (e *InsufficientDataError) Unwrap() []error {
	var errs []error
	if e.QuoteErr != nil {
		errs = append(errs, e.QuoteErr)
	}
	if e.ProfileErr != nil {
		errs = append(errs, e.ProfileErr)
	}
	return errs
}

var errEmpty = errors.New("empty response")

// Service implements ReportService
type Service struct {
	client interfaces.MarketDataClient
	chart  interfaces.ChartRenderer
	writer interfaces.DocumentWriter
	config common.ReportConfig
	logger *common.Logger
	now    func() time.Time
}

// NewService creates a new report service
func NewService(
	client interfaces.MarketDataClient,
	chart interfaces.ChartRenderer,
	writer interfaces.DocumentWriter,
	config common.ReportConfig,
	logger *common.Logger,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		client: client,
		chart:  chart,
		writer: writer,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// GenerateReport runs the full pipeline: fetch, render chart, assemble, write.
// A missing quote or profile aborts with ErrInsufficientData before any file is
// written; a missing indicator series degrades to a placeholder section.
func (s *Service) GenerateReport(ctx context.Context, symbol, outputPath string) (*models.ReportResult, error) {
	start := s.now()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if outputPath == "" {
		outputPath = s.config.OutputPath(symbol)
	}

	s.logger.Info().Str("symbol", symbol).Str("interval", s.config.Interval).Msg("Generating stock report")

	// Step 1: Fetch all three sources in sequence
	quote, quoteErr := s.client.GetQuote(ctx, symbol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if quoteErr == nil && quote.IsEmpty() {
		quoteErr = errEmpty
	}

	profile, profileErr := s.client.GetCompanyOverview(ctx, symbol)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if profileErr == nil && profile.IsEmpty() {
		profileErr = errEmpty
	}

	series, seriesErr := s.client.GetSMA(ctx, symbol, s.config.Interval)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 2: Quote and profile are required
	if quoteErr != nil || profileErr != nil {
		err := &InsufficientDataError{Symbol: symbol, QuoteErr: quoteErr, ProfileErr: profileErr}
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Insufficient data to generate the report")
		return nil, err
	}

	result := &models.ReportResult{Symbol: symbol}

	// Step 3: Indicator data is optional
	if seriesErr != nil {
		s.logger.Warn().Err(seriesErr).Str("symbol", symbol).Msg("Technical indicators unavailable (continuing with placeholder)")
		result.IndicatorError = seriesErr.Error()
		series = nil
	}

	// Step 4: Render chart
	chart, err := s.chart.RenderIndicatorChart(series)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	// Step 5: Assemble and write
	doc := AssembleReport(quote, profile, series, chart, start)
	doc.Author = s.config.Author

	written, err := s.writer.Write(doc, outputPath)
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	result.Path = written.Path
	result.Pages = written.Pages
	result.Bytes = written.Bytes
	result.IndicatorPoints = series.Len()
	result.ChartIncluded = chart != nil
	result.Duration = s.now().Sub(start)

	s.logger.Info().
		Str("symbol", symbol).
		Str("path", result.Path).
		Int("pages", result.Pages).
		Int("indicator_points", result.IndicatorPoints).
		Bool("chart", result.ChartIncluded).
		Dur("duration", result.Duration).
		Msg("Stock report generated")

	return result, nil
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
