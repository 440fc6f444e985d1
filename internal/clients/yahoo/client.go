// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/foliotracker/folio/internal/common"
	"github.com/foliotracker/folio/internal/interfaces"
	"github.com/foliotracker/folio/internal/models"
)

const (
	DefaultBaseURL   = "https://query2.finance.yahoo.com"
	DefaultTimeout   = 8 * time.Second
	DefaultRateLimit = 5 // requests per second

	userAgent = "folio-server/1.0"
)

// Client implements the MarketDataClient and FXClient interfaces against
// the Yahoo Finance v8 chart endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

// chartResponse mirrors the Yahoo v8 chart payload, trimmed to the fields
// folio reads.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string  `json:"currency"`
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
				RegularMarketTime    int64   `json:"regularMarketTime"`
				RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
				RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
				RegularMarketVolume  int64   `json:"regularMarketVolume"`
				ChartPreviousClose   float64 `json:"chartPreviousClose"`
				PreviousClose        float64 `json:"previousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// getChart performs a rate-limited GET against /v8/finance/chart/{symbol}.
func (c *Client) getChart(ctx context.Context, symbol, interval, rng string) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s", c.baseURL, symbol, interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Symbol:     symbol,
		}
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no result for %s", symbol)
	}

	return &chart, nil
}

// GetQuote retrieves the current quote for a Yahoo symbol in its native
// currency. Change fields are derived from the previous close.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	chart, err := c.getChart(ctx, symbol, "1m", "1d")
	if err != nil {
		return nil, err
	}

	r := chart.Chart.Result[0]
	meta := r.Meta

	price := meta.RegularMarketPrice
	asOf := time.Unix(meta.RegularMarketTime, 0)

	// Fall back to the last non-zero intraday close if the meta price is
	// missing (thin after-hours responses).
	if (price <= 0 || meta.RegularMarketTime == 0) && len(r.Timestamp) > 0 &&
		len(r.Indicators.Quote) > 0 && len(r.Indicators.Quote[0].Close) == len(r.Timestamp) {
		for i := len(r.Timestamp) - 1; i >= 0; i-- {
			if close := r.Indicators.Quote[0].Close[i]; close > 0 {
				price = close
				asOf = time.Unix(r.Timestamp[i], 0)
				break
			}
		}
	}

	if price <= 0 {
		return nil, fmt.Errorf("yahoo: no price for %s", symbol)
	}
	if asOf.IsZero() || asOf.Unix() == 0 {
		asOf = time.Now()
	}

	prevClose := meta.PreviousClose
	if prevClose <= 0 {
		prevClose = meta.ChartPreviousClose
	}

	var change, changePercent float64
	if prevClose > 0 {
		change = price - prevClose
		changePercent = change / prevClose * 100
	}

	return &models.Quote{
		Ticker:        symbol,
		Current:       price,
		Change:        change,
		ChangePercent: changePercent,
		DayHigh:       meta.RegularMarketDayHigh,
		DayLow:        meta.RegularMarketDayLow,
		Volume:        meta.RegularMarketVolume,
		Currency:      strings.ToUpper(meta.Currency),
		FetchedAt:     asOf,
	}, nil
}

// GetRate returns how many units of 'to' one unit of 'from' buys, using
// Yahoo FX pairs (e.g. "USDSEK=X").
func (c *Client) GetRate(ctx context.Context, from, to string) (float64, time.Time, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, time.Time{}, fmt.Errorf("invalid currency pair %q/%q", from, to)
	}
	if from == to {
		return 1, time.Now(), nil
	}

	pair := from + to + "=X"
	chart, err := c.getChart(ctx, pair, "1h", "1d")
	if err != nil {
		return 0, time.Time{}, err
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return 0, time.Time{}, fmt.Errorf("yahoo: no rate for %s", pair)
	}

	asOf := time.Unix(meta.RegularMarketTime, 0)
	if asOf.Unix() == 0 {
		asOf = time.Now()
	}

	return meta.RegularMarketPrice, asOf, nil
}

// Ensure Client implements the client interfaces
var (
	_ interfaces.MarketDataClient = (*Client)(nil)
	_ interfaces.FXClient         = (*Client)(nil)
)
