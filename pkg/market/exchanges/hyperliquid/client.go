package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/pkg/market"
)

const (
	defaultBaseURL      = "https://api.hyperliquid.xyz/info"
	testnetBaseURL      = "https://api.hyperliquid-testnet.xyz/info"
	defaultHTTPTimeout  = 10 * time.Second
	defaultMaxRetries   = 3
	defaultRetryBackoff = 150 * time.Millisecond
	maxErrorBody        = 512
)

// ErrSymbolNotFound indicates that the requested symbol is not listed.
var ErrSymbolNotFound = fmt.Errorf("hyperliquid: %w", market.ErrSymbolNotFound)

// StatusError is a non-2xx answer from the info endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hyperliquid: http status %d: %s", e.Code, e.Body)
}

// Temporary reports whether repeating the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Client reads funding data from the Hyperliquid info endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration

	dir atomic.Pointer[directory]
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

// WithBaseURL overrides the default info endpoint URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
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

// WithRetryBackoff sets the first retry delay; later delays double.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// NewClient constructs a Hyperliquid API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// post sends an InfoRequest and decodes the answer into out. Transport
// failures, 429 and 5xx answers are retried; other statuses fail at once.
func (c *Client) post(ctx context.Context, req InfoRequest, out interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("hyperliquid: encode request: %w", err)
	}

	delay := c.backoff
	for attempt := 0; ; attempt++ {
		body, err := c.send(ctx, payload)
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("hyperliquid: decode %s response: %w", req.Type, err)
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var status *StatusError
		if errors.As(err, &status) && !status.Temporary() {
			return err
		}
		if attempt >= c.maxRetries {
			return err
		}

		logx.WithContext(ctx).Debugf("hyperliquid: retry type=%s attempt=%d err=%v", req.Type, attempt+1, err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func (c *Client) send(ctx context.Context, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// refreshDirectory reloads the listed assets with their current contexts.
func (c *Client) refreshDirectory(ctx context.Context) (*directory, error) {
	var payload MetaAndAssetCtxsResponse
	if err := c.post(ctx, InfoRequest{Type: "metaAndAssetCtxs"}, &payload); err != nil {
		return nil, err
	}
	dir := newDirectory(payload)
	c.dir.Store(dir)
	return dir, nil
}

// canonicalSymbol resolves symbol against the cached directory, refreshing
// it once on a miss.
func (c *Client) canonicalSymbol(ctx context.Context, symbol string) (string, error) {
	if dir := c.dir.Load(); dir != nil {
		if asset, ok := dir.lookup(symbol); ok {
			return asset.Symbol, nil
		}
	}
	dir, err := c.refreshDirectory(ctx)
	if err != nil {
		return "", err
	}
	if asset, ok := dir.lookup(symbol); ok {
		return asset.Symbol, nil
	}
	return "", fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
}
