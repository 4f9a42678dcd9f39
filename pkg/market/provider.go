package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
)

var (
	// ErrSymbolNotFound is returned when a venue does not list the requested market.
	ErrSymbolNotFound = errors.New("market: symbol not found")
	// ErrUnknownProvider is returned when no provider is configured under a name.
	ErrUnknownProvider = errors.New("market: unknown provider")
)

// Provider exposes exchange-agnostic funding data.
type Provider interface {
	// ListMarkets returns the perpetual markets listed by the venue.
	ListMarkets(ctx context.Context) ([]Market, error)
	// LatestRates returns the current funding rate of every listed market.
	LatestRates(ctx context.Context) ([]funding.RateRecord, error)
	// FundingHistory returns raw funding points for symbol within [start, end].
	// Each point carries "timestamp" (epoch ms), "annualized_rate" in percent
	// and the venue's "hourly_rate".
	FundingHistory(ctx context.Context, symbol string, start, end time.Time) ([]chart.RawPoint, error)
}

// Tagged is implemented by providers that know the venue tag their rates carry.
type Tagged interface {
	Dex() string
}

// DexOf returns the venue tag of p, or name when p does not report one.
func DexOf(name string, p Provider) string {
	if t, ok := p.(Tagged); ok {
		if dex := strings.TrimSpace(t.Dex()); dex != "" {
			return dex
		}
	}
	return name
}

// Market describes a tradeable perpetual instrument.
type Market struct {
	Symbol      string         // Canonical symbol, e.g. "BTC"
	Dex         string         // Venue tag, e.g. "hyperliquid"
	MarketID    int64          // Venue-native numeric id when the venue uses one
	IsActive    bool           // Whether the market is currently tradeable
	RawMetadata map[string]any // Exchange-specific fields for callers that need more detail
}

// HistoryPoint builds a raw funding point in the shape FundingHistory returns.
// The hourly rate is kept under a key the series normalizer does not read, so
// plotted values are annualized percentages.
func HistoryPoint(tsMillis int64, hourlyRate float64) chart.RawPoint {
	return chart.RawPoint{
		chart.TimestampField: tsMillis,
		"annualized_rate":    funding.Annualize(hourlyRate),
		"hourly_rate":        hourlyRate,
	}
}

// Lookup returns the provider registered under name.
func Lookup(providers map[string]Provider, name string) (Provider, error) {
	p, ok := providers[name]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}
