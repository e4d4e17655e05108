// Package interfaces defines service contracts for stockreport
package interfaces

import (
	"context"

	"github.com/bobmcallan/stockreport/internal/models"
)

// MarketDataClient provides access to quote, overview and indicator data
type MarketDataClient interface {
	// GetQuote retrieves the latest quote for a symbol
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetCompanyOverview retrieves company descriptive and fundamental data
	GetCompanyOverview(ctx context.Context, symbol string) (*models.CompanyProfile, error)

	// GetSMA retrieves the simple moving average series for a symbol and interval
	GetSMA(ctx context.Context, symbol, interval string) (*models.IndicatorSeries, error)
}
