// Package svctest builds service contexts over in-memory providers for handler tests.
package svctest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cachekeys "perpdash-api/internal/cache"
	"perpdash-api/internal/config"
	"perpdash-api/internal/middleware"
	"perpdash-api/internal/model"
	"perpdash-api/internal/repo"
	"perpdash-api/internal/svc"
	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
	"perpdash-api/pkg/market"
)

// Provider is a market.Provider serving fixed data.
type Provider struct {
	Dex     string
	Rates   []funding.RateRecord
	History map[string][]chart.RawPoint
	Err     error
}

var _ market.Provider = (*Provider)(nil)

func (p *Provider) ListMarkets(context.Context) ([]market.Market, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	out := make([]market.Market, 0, len(p.Rates))
	for _, r := range p.Rates {
		out = append(out, market.Market{Symbol: r.Market, Dex: p.Dex, IsActive: true})
	}
	return out, nil
}

func (p *Provider) LatestRates(context.Context) ([]funding.RateRecord, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Rates, nil
}

func (p *Provider) FundingHistory(_ context.Context, symbol string, _, _ time.Time) ([]chart.RawPoint, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	history, ok := p.History[symbol]
	if !ok {
		return nil, market.ErrSymbolNotFound
	}
	return history, nil
}

// Hourly returns n hourly history points ending an hour before now at a constant hourly rate.
func Hourly(now time.Time, n int, hourlyRate float64) []chart.RawPoint {
	out := make([]chart.RawPoint, 0, n)
	base := now.Truncate(time.Hour)
	for i := n; i > 0; i-- {
		out = append(out, market.HistoryPoint(base.Add(-time.Duration(i)*time.Hour).UnixMilli(), hourlyRate))
	}
	return out
}

// Fixture returns a Hyperliquid and a Lighter provider quoting BTC and ETH,
// plus SOL on Hyperliquid only. Lighter quotes ETH at zero.
func Fixture(now time.Time) (hl, lt *Provider) {
	ts := now.Truncate(time.Minute).UnixMilli()
	rec := func(dex, m string, rate float64) funding.RateRecord {
		return funding.RateRecord{Market: m, Dex: dex, Rate: rate, AnnualizedRate: funding.Annualize(rate), Timestamp: ts}
	}
	hl = &Provider{
		Dex: funding.Hyperliquid,
		Rates: []funding.RateRecord{
			rec(funding.Hyperliquid, "BTC", 0.0000125),
			rec(funding.Hyperliquid, "ETH", 0.00001),
			rec(funding.Hyperliquid, "SOL", 0.00002),
		},
		History: map[string][]chart.RawPoint{
			"BTC": Hourly(now, 24, 0.0000125),
			"ETH": Hourly(now, 24, 0.00001),
		},
	}
	hl.Rates[0].OpenInterest = 2.5e9
	lt = &Provider{
		Dex: funding.Lighter,
		Rates: []funding.RateRecord{
			rec(funding.Lighter, "BTC", 0.00001),
			rec(funding.Lighter, "ETH", 0),
		},
		History: map[string][]chart.RawPoint{
			"BTC": Hourly(now, 24, 0.00001),
			"ETH": Hourly(now, 24, 0),
		},
	}
	return hl, lt
}

// NewContext wires a service context without database or Redis.
func NewContext(t testing.TB, auth config.AuthConf, providers ...*Provider) *svc.ServiceContext {
	t.Helper()
	cfg := config.Config{
		Env:     "test",
		TTL:     config.CacheTTL{Short: 10, Medium: 60, Long: 300},
		Auth:    auth,
		Ingest:  config.IngestConf{Minutes: 1440},
		Metrics: config.MetricsConf{Enabled: true, Path: "/metrics"},
	}
	ttl := cachekeys.NewTTLSet(cfg.TTL)
	local, err := cachekeys.NewLocal("svctest", time.Minute, model.ErrNotFound)
	require.NoError(t, err)

	byName := make(map[string]market.Provider, len(providers))
	for _, p := range providers {
		byName[p.Dex] = p
	}
	set, err := repo.New(repo.Dependencies{Cache: local, TTL: ttl, Providers: byName})
	require.NoError(t, err)

	return &svc.ServiceContext{
		Config:          cfg,
		ChartConfig:     cfg.ChartConfig(),
		MarketProviders: byName,
		Cache:           local,
		TTL:             ttl,
		Repo:            set,
		Auth:            middleware.NewAuthMiddleware(auth).Handle,
	}
}
