package lighter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/pkg/market"
)

const (
	defaultBaseURL          = "https://mainnet.zklighter.elliot.ai"
	testnetBaseURL          = "https://testnet.zklighter.elliot.ai"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 150 * time.Millisecond

	defaultResolution = "1h"
	maxCountBack      = 1000
	// secondsCutoff separates second-resolution timestamps from millisecond ones.
	secondsCutoff = 1_000_000_000_000
	// exchangeTag is how /funding-rates labels Lighter's own rates.
	exchangeTag = "lighter"
)

// ErrSymbolNotFound indicates that the requested symbol is not listed.
var ErrSymbolNotFound = fmt.Errorf("lighter: %w", market.ErrSymbolNotFound)

// Client wraps access to the Lighter REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int

	marketsMu sync.RWMutex
	marketIDs map[string]int64
	books     []OrderBook
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMaxRetries adjusts the retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// NewClient constructs a Lighter API client.
func NewClient(opts ...Option) *Client {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = httpClient
	}
	return client
}

// doGet issues a GET against path with query and decodes the response into result.
func (c *Client) doGet(ctx context.Context, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("lighter: build request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("lighter: read response: %w", readErr)
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("lighter: http status %d: %s", resp.StatusCode, string(body))
			} else {
				if err := checkStatus(body); err != nil {
					return err
				}
				if result != nil {
					if err := json.Unmarshal(body, result); err != nil {
						return fmt.Errorf("lighter: decode response: %w", err)
					}
				}
				return nil
			}
		}

		if attempt < c.maxRetries {
			logx.WithContext(ctx).Debugf("lighter: retry path=%s attempt=%d err=%v", path, attempt+1, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
			continue
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("lighter: request failed without error detail")
}

// GetOrderBooks lists every market and refreshes the symbol directory.
func (c *Client) GetOrderBooks(ctx context.Context) ([]OrderBook, error) {
	var resp OrderBooksResponse
	if err := c.doGet(ctx, "/api/v1/orderBooks", nil, &resp); err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(resp.OrderBooks))
	for _, book := range resp.OrderBooks {
		if key := normalizeKey(book.Symbol); key != "" {
			ids[key] = book.MarketID
		}
	}
	c.marketsMu.Lock()
	c.marketIDs = ids
	c.books = append([]OrderBook(nil), resp.OrderBooks...)
	c.marketsMu.Unlock()
	return resp.OrderBooks, nil
}

// GetFundingRates returns Lighter's current rates, dropping other exchanges' quotes.
func (c *Client) GetFundingRates(ctx context.Context) ([]FundingRate, error) {
	var resp FundingRatesResponse
	if err := c.doGet(ctx, "/api/v1/funding-rates", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]FundingRate, 0, len(resp.FundingRates))
	for _, rate := range resp.FundingRates {
		if !strings.EqualFold(strings.TrimSpace(rate.Exchange), exchangeTag) {
			continue
		}
		out = append(out, rate)
	}
	return out, nil
}

// GetFundings returns hourly funding intervals for symbol between start and
// end. Timestamps in the result are normalized to milliseconds.
func (c *Client) GetFundings(ctx context.Context, symbol string, start, end time.Time) ([]Funding, error) {
	marketID, err := c.MarketIDFor(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.After(end) {
		return nil, fmt.Errorf("lighter: start %d after end %d", start.Unix(), end.Unix())
	}
	query := url.Values{}
	query.Set("market_id", strconv.FormatInt(marketID, 10))
	query.Set("resolution", defaultResolution)
	query.Set("start_timestamp", strconv.FormatInt(start.Unix(), 10))
	query.Set("end_timestamp", strconv.FormatInt(end.Unix(), 10))
	query.Set("count_back", strconv.Itoa(maxCountBack))

	var resp FundingsResponse
	if err := c.doGet(ctx, "/api/v1/fundings", query, &resp); err != nil {
		return nil, err
	}
	out := make([]Funding, 0, len(resp.Fundings))
	for _, f := range resp.Fundings {
		f.Timestamp = NormalizeTimestamp(f.Timestamp)
		out = append(out, f)
	}
	return out, nil
}

// MarketIDFor resolves a symbol to its numeric market id, refreshing the
// directory once on a miss.
func (c *Client) MarketIDFor(ctx context.Context, symbol string) (int64, error) {
	if id, ok := c.marketIDFromCache(symbol); ok {
		return id, nil
	}
	if _, err := c.GetOrderBooks(ctx); err != nil {
		return 0, err
	}
	if id, ok := c.marketIDFromCache(symbol); ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
}

func (c *Client) marketIDFromCache(symbol string) (int64, bool) {
	key := normalizeKey(symbol)
	if key == "" {
		return 0, false
	}
	c.marketsMu.RLock()
	id, ok := c.marketIDs[key]
	c.marketsMu.RUnlock()
	return id, ok
}

// NormalizeTimestamp converts second-resolution timestamps to milliseconds.
func NormalizeTimestamp(ts int64) int64 {
	if ts > 0 && ts < secondsCutoff {
		return ts * 1000
	}
	return ts
}

// SignedRate applies the payer direction to a funding magnitude: positive when
// longs pay shorts, negative when shorts pay longs. Without a direction the
// rate is returned as sent.
func (f Funding) SignedRate() float64 {
	rate := f.Rate.Float()
	switch strings.ToLower(strings.TrimSpace(f.Direction)) {
	case "long":
		return math.Abs(rate)
	case "short":
		return -math.Abs(rate)
	default:
		return rate
	}
}

func normalizeKey(symbol string) string {
	trimmed := strings.TrimSpace(symbol)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) > 4 && strings.EqualFold(trimmed[len(trimmed)-4:], "USDT") {
		trimmed = trimmed[:len(trimmed)-4]
	}
	return strings.ToUpper(trimmed)
}
