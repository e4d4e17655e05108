// Package models defines data structures for stockreport
package models

import (
	"sort"
	"time"
)

// Quote is a snapshot of a security's latest trading price and daily change.
// Values are kept verbatim as returned by the quote endpoint; absent fields are empty.
type Quote struct {
	Symbol           string `json:"symbol"`
	Open             string `json:"open"`
	High             string `json:"high"`
	Low              string `json:"low"`
	Price            string `json:"price"`
	Volume           string `json:"volume"`
	LatestTradingDay string `json:"latest_trading_day"`
	PreviousClose    string `json:"previous_close"`
	Change           string `json:"change"`
	ChangePercent    string `json:"change_percent"`
}

// IsEmpty reports whether the quote carries no data at all.
func (q *Quote) IsEmpty() bool {
	if q == nil {
		return true
	}
	return *q == Quote{}
}

// CompanyProfile holds descriptive and fundamental metadata about a company.
type CompanyProfile struct {
	Symbol               string `json:"symbol"`
	Name                 string `json:"name"`
	Exchange             string `json:"exchange"`
	Currency             string `json:"currency"`
	Country              string `json:"country"`
	Sector               string `json:"sector"`
	Industry             string `json:"industry"`
	MarketCapitalization string `json:"market_capitalization"`
	PERatio              string `json:"pe_ratio"`
	DividendYield        string `json:"dividend_yield"`
	EPS                  string `json:"eps"`
	Description          string `json:"description"`
}

// IsEmpty reports whether the profile carries no data at all.
func (p *CompanyProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return *p == CompanyProfile{}
}

// IndicatorPoint is a single (timestamp, value) pair of a technical indicator.
type IndicatorPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Raw       string    `json:"raw"`       // timestamp as received
	Value     float64   `json:"value"`     // parsed value
	RawValue  string    `json:"raw_value"` // value as received
}

// IndicatorSeries is a technical indicator time series, sorted oldest first.
type IndicatorSeries struct {
	Symbol     string           `json:"symbol"`
	Function   string           `json:"function"`
	Interval   string           `json:"interval"`
	TimePeriod int              `json:"time_period"`
	SeriesType string           `json:"series_type"`
	Points     []IndicatorPoint `json:"points"`
}

// Len returns the number of points, tolerating a nil series.
func (s *IndicatorSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// IsEmpty reports whether there is nothing to chart or tabulate.
func (s *IndicatorSeries) IsEmpty() bool {
	return s.Len() == 0
}

// SortChronological orders points oldest first.
func (s *IndicatorSeries) SortChronological() {
	if s == nil {
		return
	}
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Timestamp.Before(s.Points[j].Timestamp)
	})
}

// Newest returns a copy of the points ordered most recent first.
func (s *IndicatorSeries) Newest() []IndicatorPoint {
	n := s.Len()
	out := make([]IndicatorPoint, n)
	for i := 0; i < n; i++ {
		out[i] = s.Points[n-1-i]
	}
	return out
}
