// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockreport/internal/common"
	"github.com/bobmcallan/stockreport/internal/interfaces"
	"github.com/bobmcallan/stockreport/internal/models"
)

const (
	DefaultBaseURL    = "https://www.alphavantage.co/query"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 5 // requests per minute (free tier)
	DefaultTimePeriod = 20
	DefaultSeriesType = "close"
)

const (
	functionQuote    = "GLOBAL_QUOTE"
	functionOverview = "OVERVIEW"
	functionSMA      = "SMA"

	keyGlobalQuote = "Global Quote"
	keySMA         = "Technical Analysis: SMA"
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	timePeriod int
	seriesType string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit in requests per minute
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute <= 0 {
			return
		}
		c.limiter = newLimiter(requestsPerMinute)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSMAParams sets the SMA window size and price series
func WithSMAParams(timePeriod int, seriesType string) ClientOption {
	return func(c *Client) {
		if timePeriod > 0 {
			c.timePeriod = timePeriod
		}
		if seriesType != "" {
			c.seriesType = seriesType
		}
	}
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    newLimiter(DefaultRateLimit),
		logger:     common.NewSilentLogger(),
		timePeriod: DefaultTimePeriod,
		seriesType: DefaultSeriesType,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// query performs a rate-limited GET and decodes the top-level JSON object.
func (c *Client) query(ctx context.Context, function, symbol string, params url.Values) (map[string]json.RawMessage, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("%s: symbol is required", function)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", redactURL(err))
	}

	c.logger.Debug().Str("function", function).Str("symbol", symbol).Msg("Alpha Vantage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(&FetchError{Kind: KindTransport, Function: function, Symbol: symbol, Message: "request failed", Err: redactURL(err)})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(&FetchError{Kind: KindTransport, Function: function, Symbol: symbol, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.fail(&FetchError{
			Kind:       KindHTTP,
			Function:   function,
			Symbol:     symbol,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		})
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, c.fail(&FetchError{Kind: KindMalformed, Function: function, Symbol: symbol, StatusCode: resp.StatusCode, Message: "failed to decode response", Err: err})
	}

	return data, nil
}

// extract returns the named sub-object, classifying an absent key.
func (c *Client) extract(data map[string]json.RawMessage, key, function, symbol string) (json.RawMessage, error) {
	raw, ok := data[key]
	if !ok {
		return nil, c.fail(&FetchError{
			Kind:       KindMalformed,
			Function:   function,
			Symbol:     symbol,
			StatusCode: http.StatusOK,
			Message:    missingKeyMessage(data, key),
		})
	}
	return raw, nil
}

// fail logs a fetch failure and returns it.
func (c *Client) fail(err *FetchError) error {
	c.logger.Warn().
		Str("function", err.Function).
		Str("symbol", err.Symbol).
		Str("kind", string(err.Kind)).
		Int("status", err.StatusCode).
		Str("detail", err.Message).
		Msg("Alpha Vantage request returned no data")
	return err
}

// GetQuote retrieves the latest quote for a symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	data, err := c.query(ctx, functionQuote, symbol, nil)
	if err != nil {
		return nil, err
	}

	raw, err := c.extract(data, keyGlobalQuote, functionQuote, symbol)
	if err != nil {
		return nil, err
	}

	var gq globalQuoteResponse
	if err := json.Unmarshal(raw, &gq); err != nil {
		return nil, c.fail(&FetchError{Kind: KindMalformed, Function: functionQuote, Symbol: symbol, StatusCode: http.StatusOK, Message: "failed to decode quote", Err: err})
	}

	quote := gq.toModel()
	if quote.IsEmpty() {
		return nil, c.fail(&FetchError{Kind: KindEmpty, Function: functionQuote, Symbol: symbol, StatusCode: http.StatusOK, Message: "quote is empty"})
	}

	return quote, nil
}

// globalQuoteResponse mirrors the "Global Quote" object
type globalQuoteResponse struct {
	Symbol           flexString `json:"01. symbol"`
	Open             flexString `json:"02. open"`
	High             flexString `json:"03. high"`
	Low              flexString `json:"04. low"`
	Price            flexString `json:"05. price"`
	Volume           flexString `json:"06. volume"`
	LatestTradingDay flexString `json:"07. latest trading day"`
	PreviousClose    flexString `json:"08. previous close"`
	Change           flexString `json:"09. change"`
	ChangePercent    flexString `json:"10. change percent"`
}

func (r globalQuoteResponse) toModel() *models.Quote {
	return &models.Quote{
		Symbol:           string(r.Symbol),
		Open:             string(r.Open),
		High:             string(r.High),
		Low:              string(r.Low),
		Price:            string(r.Price),
		Volume:           string(r.Volume),
		LatestTradingDay: string(r.LatestTradingDay),
		PreviousClose:    string(r.PreviousClose),
		Change:           string(r.Change),
		ChangePercent:    string(r.ChangePercent),
	}
}

// GetCompanyOverview retrieves company descriptive and fundamental data
func (c *Client) GetCompanyOverview(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	data, err := c.query(ctx, functionOverview, symbol, nil)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, c.fail(&FetchError{Kind: KindEmpty, Function: functionOverview, Symbol: symbol, StatusCode: http.StatusOK, Message: "company overview is empty"})
	}

	// The overview is the whole object; a lone notice means no data was returned
	if msg := apiNotice(data); msg != "" && !hasAnyField(data, overviewFields) {
		return nil, c.fail(&FetchError{Kind: KindMalformed, Function: functionOverview, Symbol: symbol, StatusCode: http.StatusOK, Message: msg})
	}

	var ov overviewResponse
	if err := decodeFields(data, &ov); err != nil {
		return nil, c.fail(&FetchError{Kind: KindMalformed, Function: functionOverview, Symbol: symbol, StatusCode: http.StatusOK, Message: "failed to decode company overview", Err: err})
	}

	profile := ov.toModel()
	if profile.IsEmpty() {
		return nil, c.fail(&FetchError{Kind: KindEmpty, Function: functionOverview, Symbol: symbol, StatusCode: http.StatusOK, Message: "company overview is empty"})
	}

	return profile, nil
}

var overviewFields = []string{
	"Symbol", "Name", "Exchange", "Currency", "Country", "Sector", "Industry",
	"MarketCapitalization", "PERatio", "DividendYield", "EPS", "Description",
}

// overviewResponse mirrors the fields of the OVERVIEW object used by the report
type overviewResponse struct {
	Symbol               flexString `json:"Symbol"`
	Name                 flexString `json:"Name"`
	Exchange             flexString `json:"Exchange"`
	Currency             flexString `json:"Currency"`
	Country              flexString `json:"Country"`
	Sector               flexString `json:"Sector"`
	Industry             flexString `json:"Industry"`
	MarketCapitalization flexString `json:"MarketCapitalization"`
	PERatio              flexString `json:"PERatio"`
	DividendYield        flexString `json:"DividendYield"`
	EPS                  flexString `json:"EPS"`
	Description          flexString `json:"Description"`
}

func (r overviewResponse) toModel() *models.CompanyProfile {
	return &models.CompanyProfile{
		Symbol:               string(r.Symbol),
		Name:                 string(r.Name),
		Exchange:             string(r.Exchange),
		Currency:             string(r.Currency),
		Country:              string(r.Country),
		Sector:               string(r.Sector),
		Industry:             string(r.Industry),
		MarketCapitalization: string(r.MarketCapitalization),
		PERatio:              string(r.PERatio),
		DividendYield:        string(r.DividendYield),
		EPS:                  string(r.EPS),
		Description:          string(r.Description),
	}
}

// GetSMA retrieves the simple moving average series for a symbol and interval.
// Points are returned oldest first.
func (c *Client) GetSMA(ctx context.Context, symbol, interval string) (*models.IndicatorSeries, error) {
	if strings.TrimSpace(interval) == "" {
		return nil, fmt.Errorf("%s: interval is required", functionSMA)
	}

	params := url.Values{}
	params.Set("interval", interval)
	params.Set("time_period", strconv.Itoa(c.timePeriod))
	params.Set("series_type", c.seriesType)

	data, err := c.query(ctx, functionSMA, symbol, params)
	if err != nil {
		return nil, err
	}

	raw, err := c.extract(data, keySMA, functionSMA, symbol)
	if err != nil {
		return nil, err
	}

	var entries map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, c.fail(&FetchError{Kind: KindMalformed, Function: functionSMA, Symbol: symbol, StatusCode: http.StatusOK, Message: "failed to decode SMA series", Err: err})
	}

	series := &models.IndicatorSeries{
		Symbol:     symbol,
		Function:   functionSMA,
		Interval:   interval,
		TimePeriod: c.timePeriod,
		SeriesType: c.seriesType,
		Points:     make([]models.IndicatorPoint, 0, len(entries)),
	}

	for stamp, entry := range entries {
		point, err := parseIndicatorPoint(stamp, entry["SMA"])
		if err != nil {
			return nil, c.fail(&FetchError{Kind: KindMalformed, Function: functionSMA, Symbol: symbol, StatusCode: http.StatusOK, Message: err.Error(), Err: err})
		}
		series.Points = append(series.Points, point)
	}

	if len(series.Points) == 0 {
		return nil, c.fail(&FetchError{Kind: KindEmpty, Function: functionSMA, Symbol: symbol, StatusCode: http.StatusOK, Message: "SMA series is empty"})
	}

	series.SortChronological()

	c.logger.Debug().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("points", len(series.Points)).
		Msg("SMA series fetched")

	return series, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
