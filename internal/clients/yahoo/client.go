// Package yahoo provides a price history client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
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
const ProviderName = "yahoo"

const (
	DefaultBaseURL     = "https://query1.finance.yahoo.com"
	DefaultTimeout     = 15 * time.Second
	DefaultRateLimit   = 5 // requests per second
	DefaultConcurrency = 4

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client implements PriceProvider over the Yahoo Finance v8 chart endpoint
type Client struct {
	baseURL     string
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

// WithConcurrency bounds parallel per-ticker requests in History.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient creates a new Yahoo client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
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

// APIError represents a non-200 response that is not "unknown symbol"
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo chart API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

// Name implements PriceProvider.
func (c *Client) Name() string {
	return ProviderName
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// GetChart fetches bars for one ticker. An unknown symbol yields no bars and
// no error.
func (c *Client) GetChart(ctx context.Context, ticker string, q models.HistoryQuery) ([]models.PriceBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	end := q.End
	if end.IsZero() {
		end = time.Now()
	}
	var period1 int64
	if !q.Start.IsZero() {
		period1 = q.Start.Unix()
	}

	params := url.Values{}
	params.Set("interval", string(q.Interval))
	params.Set("period1", strconv.FormatInt(period1, 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("includePrePost", "false")
	params.Set("events", "div,splits")

	path := "/v8/finance/chart/" + url.PathEscape(ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("ticker", ticker).Str("interval", string(q.Interval)).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Symbol: ticker}
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Chart.Error != nil {
		if payload.Chart.Error.Code == "Not Found" {
			return nil, nil
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: payload.Chart.Error.Description, Symbol: ticker}
	}
	if len(payload.Chart.Result) == 0 {
		return nil, nil
	}

	return toBars(payload.Chart.Result[0]), nil
}

// toBars converts a chart result to bars dated at midnight UTC of the
// exchange-local trading day.
func toBars(r chartResult) []models.PriceBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	quote := r.Indicators.Quote[0]
	bars := make([]models.PriceBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		local := time.Unix(ts+r.Meta.GMTOffset, 0).UTC()
		bar := models.PriceBar{
			Date:  time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:  at(quote.Open, i),
			High:  at(quote.High, i),
			Low:   at(quote.Low, i),
			Close: at(quote.Close, i),
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) || values[i] == nil {
		return nil
	}
	return models.FiniteOrNil(*values[i])
}

// History implements PriceProvider. Tickers are fetched concurrently; the
// first transport or API failure cancels the rest.
func (c *Client) History(ctx context.Context, tickers []string, q models.HistoryQuery) (map[string][]models.PriceBar, error) {
	var mu sync.Mutex
	out := make(map[string][]models.PriceBar, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, t := range tickers {
		ticker := models.NormalizeTicker(t)
		g.Go(func() error {
			bars, err := c.GetChart(gctx, ticker, q)
			if err != nil {
				return &models.ProviderError{Provider: ProviderName, Ticker: ticker, Err: err}
			}
			if len(bars) == 0 {
				c.logger.Debug().Str("ticker", ticker).Msg("Yahoo returned no bars")
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

// Ensure Client implements PriceProvider
var _ interfaces.PriceProvider = (*Client)(nil)
