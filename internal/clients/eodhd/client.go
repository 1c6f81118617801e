// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// ProviderName identifies this client in errors and logs.
const ProviderName = "eodhd"

// flexFloat64 handles JSON values that may be a number, a numeric string or
// null. Unparseable and null values are recorded as absent.
type flexFloat64 struct {
	value float64
	valid bool
}

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = flexFloat64{}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64{value: num, valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = flexFloat64{}
			return nil
		}
		*f = flexFloat64{value: num, valid: true}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

func (f flexFloat64) ptr() *float64 {
	if !f.valid {
		return nil
	}
	return models.FiniteOrNil(f.value)
}

const (
	DefaultBaseURL     = "https://eodhd.com/api"
	DefaultTimeout     = 30 * time.Second
	DefaultRateLimit   = 10 // requests per second
	DefaultExchange    = "US"
	DefaultConcurrency = 4
)

// Client implements PriceProvider over the EODHD end-of-day API
type Client struct {
	baseURL     string
	apiKey      string
	exchange    string
	concurrency int
	httpClient  *http.Client
	logger      *common.Logger
	limiter     *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithExchange sets the exchange suffix appended to bare tickers.
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		if exchange != "" {
			c.exchange = strings.ToUpper(exchange)
		}
	}
}

// WithConcurrency bounds parallel per-ticker requests in History.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		exchange:    DefaultExchange,
		concurrency: DefaultConcurrency,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name implements PriceProvider.
func (c *Client) Name() string {
	return ProviderName
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Symbol maps a ticker to the EODHD CODE.EXCHANGE form. Bare tickers get
// the configured exchange; common Yahoo suffixes are translated.
func (c *Client) Symbol(ticker string) string {
	ticker = models.NormalizeTicker(ticker)
	i := strings.LastIndex(ticker, ".")
	if i < 0 {
		return ticker + "." + c.exchange
	}
	code, suffix := ticker[:i], ticker[i+1:]
	if mapped, ok := yahooSuffixes[suffix]; ok {
		return code + "." + mapped
	}
	return ticker
}

var yahooSuffixes = map[string]string{
	"AX": "AU",
	"L":  "LSE",
	"DE": "XETRA",
	"PA": "PA",
	"TO": "TO",
	"HK": "HK",
}

// GetEOD retrieves end-of-day bars for one ticker in ascending date order.
// An unknown ticker yields no bars and no error.
func (c *Client) GetEOD(ctx context.Context, ticker string, opts ...EODOption) ([]models.PriceBar, error) {
	params := &EODParams{
		Period: "d",
		Order:  "a",
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/eod/%s", url.PathEscape(c.Symbol(ticker)))

	var bars []eodBarResponse
	if err := c.get(ctx, path, urlParams, &bars); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}

	result := make([]models.PriceBar, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		result = append(result, models.PriceBar{
			Date:   date,
			Open:   bar.Open.ptr(),
			High:   bar.High.ptr(),
			Low:    bar.Low.ptr(),
			Close:  bar.Close.ptr(),
			Volume: int64(bar.Volume.value),
		})
	}

	return result, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// History implements PriceProvider. Tickers are fetched concurrently; the
// first transport or API failure cancels the rest.
func (c *Client) History(ctx context.Context, tickers []string, q models.HistoryQuery) (map[string][]models.PriceBar, error) {
	opts := []EODOption{WithPeriod(periodFor(q.Interval)), WithDateRange(q.Start, q.End)}

	var mu sync.Mutex
	out := make(map[string][]models.PriceBar, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, t := range tickers {
		ticker := models.NormalizeTicker(t)
		g.Go(func() error {
			bars, err := c.GetEOD(gctx, ticker, opts...)
			if err != nil {
				return &models.ProviderError{Provider: ProviderName, Ticker: ticker, Err: err}
			}
			if len(bars) == 0 {
				c.logger.Debug().Str("ticker", ticker).Msg("EODHD returned no bars")
				return nil
			}
			mu.Lock()
			out[ticker] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func periodFor(i models.Interval) string {
	switch i {
	case models.IntervalWeekly:
		return "w"
	case models.IntervalMonthly:
		return "m"
	default:
		return "d"
	}
}

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)
