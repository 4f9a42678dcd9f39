package hyperliquid

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
	"perpdash-api/pkg/market"
)

const defaultProviderTimeout = 8 * time.Second

// Provider wraps Hyperliquid client calls behind the generic market.Provider contract.
type Provider struct {
	client      *Client
	timeout     time.Duration
	persistence market.Persistence
	providerID  string
	now         func() time.Time
	cacheMu     sync.RWMutex
	rates       cachedRates
	markets     cachedMarkets
}

type providerConfig struct {
	timeout      time.Duration
	clientConfig []Option
}

// ProviderOption customises the Hyperliquid provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClientOptions passes options to the underlying Hyperliquid client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientConfig = append(cfg.clientConfig, options...)
	}
}

// NewProvider constructs a Hyperliquid funding provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{
		timeout: defaultProviderTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Provider{
		client:  NewClient(cfg.clientConfig...),
		timeout: cfg.timeout,
		now:     time.Now,
	}
}

func init() {
	market.RegisterProvider(funding.Hyperliquid, func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []ProviderOption{}
		clientOptions := []Option{}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.HTTPTimeout > 0 {
			clientOptions = append(clientOptions, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if strings.EqualFold(cfg.Mode, "testnet") {
			clientOptions = append(clientOptions, WithBaseURL(testnetBaseURL))
		}
		if cfg.BaseURL != "" {
			clientOptions = append(clientOptions, WithBaseURL(cfg.BaseURL))
		}
		if cfg.MaxRetries > 0 {
			clientOptions = append(clientOptions, WithMaxRetries(cfg.MaxRetries))
		}
		if len(clientOptions) > 0 {
			opts = append(opts, WithClientOptions(clientOptions...))
		}
		provider := NewProvider(opts...)
		provider.providerID = name
		return provider, nil
	})
}

// ListMarkets implements market.Provider.
func (p *Provider) ListMarkets(ctx context.Context) ([]market.Market, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if markets, ok := p.loadMarkets(); ok {
		return markets, nil
	}

	infos, err := p.client.GetFundingSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	markets := p.collectMarkets(infos)
	p.storeMarkets(markets)
	return markets, nil
}

func (p *Provider) collectMarkets(infos []MarketInfo) []market.Market {
	markets := make([]market.Market, 0, len(infos))
	for _, info := range infos {
		meta := info.Meta
		markets = append(markets, market.Market{
			Symbol:   info.Symbol,
			Dex:      funding.Hyperliquid,
			IsActive: !meta.IsDelisted,
			RawMetadata: map[string]any{
				"maxLeverage":  meta.MaxLeverage,
				"marginTable":  meta.MarginTableID,
				"onlyIsolated": meta.OnlyIsolated,
				"szDecimals":   meta.SzDecimals,
			},
		})
	}
	return markets
}

// LatestRates implements market.Provider. Delisted assets are skipped.
func (p *Provider) LatestRates(ctx context.Context) ([]funding.RateRecord, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if rates, ok := p.loadRates(); ok {
		return rates, nil
	}

	infos, err := p.client.GetFundingSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	ts := p.now().Truncate(time.Minute).UnixMilli()
	rates := make([]funding.RateRecord, 0, len(infos))
	for _, info := range infos {
		if info.IsDelisted {
			continue
		}
		rates = append(rates, funding.RateRecord{
			Market:         info.Symbol,
			Dex:            funding.Hyperliquid,
			Rate:           info.FundingRate,
			AnnualizedRate: funding.Annualize(info.FundingRate),
			OpenInterest:   info.OpenInterest,
			Timestamp:      ts,
		})
	}
	p.storeMarkets(p.collectMarkets(infos))
	p.persistRates(ctx, rates)
	p.storeRates(rates)
	return rates, nil
}

// FundingHistory implements market.Provider.
func (p *Provider) FundingHistory(ctx context.Context, symbol string, start, end time.Time) ([]chart.RawPoint, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	entries, err := p.client.GetFundingHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	points := make([]chart.RawPoint, 0, len(entries))
	for _, entry := range entries {
		rate, err := strconv.ParseFloat(entry.FundingRate, 64)
		if err != nil {
			continue
		}
		points = append(points, market.HistoryPoint(entry.Time, rate))
	}
	return points, nil
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.timeout)
}

// SetPersistence wires a persistence layer for funding data.
func (p *Provider) SetPersistence(persist market.Persistence) {
	p.persistence = persist
}

const (
	ratesCacheTTL   = 15 * time.Second
	marketsCacheTTL = 5 * time.Minute
)

type cachedRates struct {
	Rates   []funding.RateRecord
	Fetched time.Time
}

type cachedMarkets struct {
	Markets []market.Market
	Fetched time.Time
}

func (p *Provider) loadRates() ([]funding.RateRecord, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	if len(p.rates.Rates) == 0 || time.Since(p.rates.Fetched) > ratesCacheTTL {
		return nil, false
	}
	rates := make([]funding.RateRecord, len(p.rates.Rates))
	copy(rates, p.rates.Rates)
	return rates, true
}

func (p *Provider) storeRates(rates []funding.RateRecord) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	clone := make([]funding.RateRecord, len(rates))
	copy(clone, rates)
	p.rates = cachedRates{Rates: clone, Fetched: time.Now()}
}

func (p *Provider) loadMarkets() ([]market.Market, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	if len(p.markets.Markets) == 0 || time.Since(p.markets.Fetched) > marketsCacheTTL {
		return nil, false
	}
	markets := make([]market.Market, len(p.markets.Markets))
	copy(markets, p.markets.Markets)
	return markets, true
}

func (p *Provider) storeMarkets(markets []market.Market) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	clone := make([]market.Market, len(markets))
	copy(clone, markets)
	p.markets = cachedMarkets{Markets: clone, Fetched: time.Now()}
}

// Dex returns the venue tag stored with every rate.
func (p *Provider) Dex() string { return funding.Hyperliquid }

func (p *Provider) providerName() string {
	if strings.TrimSpace(p.providerID) != "" {
		return p.providerID
	}
	return funding.Hyperliquid
}
