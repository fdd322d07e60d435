// Package binance provides a minimal REST client for Binance spot market
// data. Only the klines endpoint is used: the simulator needs historical
// minute candles, nothing else.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"signal-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.binance.com"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	// maxKlinesPerRequest is the Binance API page size limit.
	maxKlinesPerRequest = 1000
)

// ErrUnavailable indicates the exchange could not be reached or kept
// rejecting requests after all retries.
var ErrUnavailable = errors.New("binance unavailable")

// Client fetches klines over the Binance REST API.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new Binance REST client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Klines fetches 1-minute candles for symbol within [start, end) in ms,
// paginating through the API's 1000-row limit. Candles are returned in
// timestamp ASC order.
func (c *Client) Klines(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error) {
	var all []*domain.Candle

	cursor := start
	for cursor < end {
		page, err := c.klinesPage(ctx, symbol, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)

		last := page[len(page)-1].Timestamp
		next := last + domain.CandleIntervalMs
		if next <= cursor {
			return nil, fmt.Errorf("klines page did not advance past %d", cursor)
		}
		cursor = next
	}

	return all, nil
}

// klinesPage fetches a single page of up to 1000 candles.
func (c *Client) klinesPage(ctx context.Context, symbol string, start, end int64) ([]*domain.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1m")
	q.Set("startTime", strconv.FormatInt(start, 10))
	q.Set("endTime", strconv.FormatInt(end-1, 10)) // Binance endTime is inclusive
	q.Set("limit", strconv.Itoa(maxKlinesPerRequest))

	endpoint := c.baseURL + "/api/v3/klines?" + q.Encode()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// Each kline is a heterogeneous array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal klines: %w", err)
	}

	candles := make([]*domain.Candle, 0, len(raw))
	for _, k := range raw {
		if len(k) < 5 {
			return nil, fmt.Errorf("kline row too short: %d fields", len(k))
		}

		var openTime int64
		if err := json.Unmarshal(k[0], &openTime); err != nil {
			return nil, fmt.Errorf("parse kline open time: %w", err)
		}

		open, err := parsePrice(k[1])
		if err != nil {
			return nil, fmt.Errorf("parse kline open: %w", err)
		}
		high, err := parsePrice(k[2])
		if err != nil {
			return nil, fmt.Errorf("parse kline high: %w", err)
		}
		low, err := parsePrice(k[3])
		if err != nil {
			return nil, fmt.Errorf("parse kline low: %w", err)
		}
		closePrice, err := parsePrice(k[4])
		if err != nil {
			return nil, fmt.Errorf("parse kline close: %w", err)
		}

		candles = append(candles, &domain.Candle{
			Symbol:    symbol,
			Timestamp: openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
		})
	}

	return candles, nil
}

// parsePrice converts a quoted decimal string like "2000.12345678" to float64.
func parsePrice(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// get performs a GET with retries and exponential backoff.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			// Client errors are not retried
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("%w: max retries exceeded: %v", ErrUnavailable, lastErr)
}
