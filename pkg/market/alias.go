package market

import (
	"context"
	"strings"
	"time"

	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
)

// aliasedProvider renames venue symbols to dashboard market names so that the
// same asset lines up across venues (e.g. Lighter "1000PEPE" as "kPEPE").
type aliasedProvider struct {
	Provider
	toMarket map[string]string // venue symbol -> market
	toVenue  map[string]string // market -> venue symbol
}

// WithAliases wraps p so that venue symbols listed in aliases are reported
// under their mapped market names. Keys are venue symbols, values market names,
// both compared case-insensitively. An empty map returns p unchanged.
func WithAliases(p Provider, aliases map[string]string) Provider {
	if len(aliases) == 0 || p == nil {
		return p
	}
	ap := &aliasedProvider{
		Provider: p,
		toMarket: make(map[string]string, len(aliases)),
		toVenue:  make(map[string]string, len(aliases)),
	}
	for venue, name := range aliases {
		venue, name = strings.TrimSpace(venue), strings.TrimSpace(name)
		ap.toMarket[strings.ToUpper(venue)] = name
		ap.toVenue[strings.ToUpper(name)] = venue
	}
	return ap
}

func (a *aliasedProvider) marketName(symbol string) string {
	if name, ok := a.toMarket[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		return name
	}
	return symbol
}

// Dex reports the tag of the wrapped provider.
func (a *aliasedProvider) Dex() string {
	return DexOf("", a.Provider)
}

func (a *aliasedProvider) ListMarkets(ctx context.Context) ([]Market, error) {
	markets, err := a.Provider.ListMarkets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Market, len(markets))
	for i, m := range markets {
		m.Symbol = a.marketName(m.Symbol)
		out[i] = m
	}
	return out, nil
}

func (a *aliasedProvider) LatestRates(ctx context.Context) ([]funding.RateRecord, error) {
	rates, err := a.Provider.LatestRates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]funding.RateRecord, len(rates))
	for i, r := range rates {
		r.Market = a.marketName(r.Market)
		out[i] = r
	}
	return out, nil
}

func (a *aliasedProvider) FundingHistory(ctx context.Context, symbol string, start, end time.Time) ([]chart.RawPoint, error) {
	if venue, ok := a.toVenue[strings.ToUpper(strings.TrimSpace(symbol))]; ok {
		symbol = venue
	}
	return a.Provider.FundingHistory(ctx, symbol, start, end)
}

// SetPersistence forwards to the wrapped provider with market names applied
// to every recorded batch.
func (a *aliasedProvider) SetPersistence(persist Persistence) {
	if persist == nil {
		AttachPersistence(a.Provider, nil)
		return
	}
	AttachPersistence(a.Provider, aliasedPersistence{alias: a, next: persist})
}

type aliasedPersistence struct {
	alias *aliasedProvider
	next  Persistence
}

func (p aliasedPersistence) RecordRates(ctx context.Context, provider string, rates []funding.RateRecord) error {
	out := make([]funding.RateRecord, len(rates))
	for i, r := range rates {
		r.Market = p.alias.marketName(r.Market)
		out[i] = r
	}
	return p.next.RecordRates(ctx, provider, out)
}
