package lighter

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
	"perpdash-api/pkg/market"
)

const (
	defaultProviderTimeout = 8 * time.Second
	ratesCacheTTL          = 15 * time.Second
	marketsCacheTTL        = 5 * time.Minute
)

// Provider exposes Lighter funding data through market.Provider.
type Provider struct {
	client      *Client
	timeout     time.Duration
	persistence market.Persistence
	providerID  string
	now         func() time.Time

	cacheMu        sync.RWMutex
	rates          []funding.RateRecord
	ratesFetched   time.Time
	markets        []market.Market
	marketsFetched time.Time
}

type providerConfig struct {
	timeout      time.Duration
	clientConfig []Option
}

// ProviderOption customises the Lighter provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithClientOptions passes options to the underlying Lighter client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientConfig = append(cfg.clientConfig, options...)
	}
}

// NewProvider constructs a Lighter funding provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{timeout: defaultProviderTimeout}
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
	market.RegisterProvider(funding.Lighter, func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
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
	books, err := p.client.GetOrderBooks(ctx)
	if err != nil {
		return nil, err
	}
	markets := make([]market.Market, 0, len(books))
	for _, book := range books {
		markets = append(markets, market.Market{
			Symbol:   strings.TrimSpace(book.Symbol),
			Dex:      funding.Lighter,
			MarketID: book.MarketID,
			IsActive: book.Active(),
			RawMetadata: map[string]any{
				"takerFee":      book.TakerFee.Float(),
				"makerFee":      book.MakerFee.Float(),
				"sizeDecimals":  book.SupportedSizeDecimals,
				"priceDecimals": book.SupportedPriceDecimals,
			},
		})
	}
	p.storeMarkets(markets)
	return markets, nil
}

// LatestRates implements market.Provider. Markets the order book listing marks
// inactive are skipped; when the listing is unavailable every rate is kept.
func (p *Provider) LatestRates(ctx context.Context) ([]funding.RateRecord, error) {
	if rates, ok := p.loadRates(); ok {
		return rates, nil
	}
	inactive := make(map[int64]bool)
	if markets, err := p.ListMarkets(ctx); err != nil {
		logx.WithContext(ctx).Errorf("lighter: list markets provider=%s err=%v", p.providerName(), err)
	} else {
		for _, m := range markets {
			if !m.IsActive {
				inactive[m.MarketID] = true
			}
		}
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	quotes, err := p.client.GetFundingRates(ctx)
	if err != nil {
		return nil, err
	}
	ts := p.now().Truncate(time.Minute).UnixMilli()
	rates := make([]funding.RateRecord, 0, len(quotes))
	for _, q := range quotes {
		if inactive[q.MarketID] {
			continue
		}
		symbol := strings.TrimSpace(q.Symbol)
		if symbol == "" {
			continue
		}
		rates = append(rates, funding.RateRecord{
			Market:         symbol,
			Dex:            funding.Lighter,
			Rate:           q.Rate.Float(),
			AnnualizedRate: funding.Annualize(q.Rate.Float()),
			Timestamp:      ts,
		})
	}
	p.persistRates(ctx, rates)
	p.storeRates(rates)
	return rates, nil
}

// FundingHistory implements market.Provider.
func (p *Provider) FundingHistory(ctx context.Context, symbol string, start, end time.Time) ([]chart.RawPoint, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	fundings, err := p.client.GetFundings(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	points := make([]chart.RawPoint, 0, len(fundings))
	for _, f := range fundings {
		points = append(points, market.HistoryPoint(f.Timestamp, f.SignedRate()))
	}
	return points, nil
}

// SetPersistence wires a persistence layer for funding data.
func (p *Provider) SetPersistence(persist market.Persistence) {
	p.persistence = persist
}

func (p *Provider) persistRates(ctx context.Context, rates []funding.RateRecord) {
	if p.persistence == nil || len(rates) == 0 {
		return
	}
	if err := p.persistence.RecordRates(ctx, p.providerName(), rates); err != nil {
		logx.WithContext(ctx).Errorf("lighter: persist rates provider=%s count=%d err=%v", p.providerName(), len(rates), err)
	}
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Provider) loadRates() ([]funding.RateRecord, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	if len(p.rates) == 0 || time.Since(p.ratesFetched) > ratesCacheTTL {
		return nil, false
	}
	return append([]funding.RateRecord(nil), p.rates...), true
}

func (p *Provider) storeRates(rates []funding.RateRecord) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.rates = append([]funding.RateRecord(nil), rates...)
	p.ratesFetched = time.Now()
}

func (p *Provider) loadMarkets() ([]market.Market, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	if len(p.markets) == 0 || time.Since(p.marketsFetched) > marketsCacheTTL {
		return nil, false
	}
	return append([]market.Market(nil), p.markets...), true
}

func (p *Provider) storeMarkets(markets []market.Market) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.markets = append([]market.Market(nil), markets...)
	p.marketsFetched = time.Now()
}

// Dex returns the venue tag stored with every rate.
func (p *Provider) Dex() string { return funding.Lighter }

func (p *Provider) providerName() string {
	if strings.TrimSpace(p.providerID) != "" {
		return p.providerID
	}
	return funding.Lighter
}
