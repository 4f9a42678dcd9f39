package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
)

type stubProvider struct {
	historySymbol string
	persistence   Persistence
}

func (s *stubProvider) ListMarkets(context.Context) ([]Market, error) {
	return []Market{{Symbol: "1000PEPE", Dex: funding.Lighter}, {Symbol: "ETH", Dex: funding.Lighter}}, nil
}

func (s *stubProvider) LatestRates(ctx context.Context) ([]funding.RateRecord, error) {
	rates := []funding.RateRecord{
		{Market: "1000PEPE", Dex: funding.Lighter, AnnualizedRate: 3},
		{Market: "ETH", Dex: funding.Lighter, AnnualizedRate: 8},
	}
	if s.persistence != nil {
		_ = s.persistence.RecordRates(ctx, funding.Lighter, rates)
	}
	return rates, nil
}

func (s *stubProvider) FundingHistory(_ context.Context, symbol string, _, _ time.Time) ([]chart.RawPoint, error) {
	s.historySymbol = symbol
	return []chart.RawPoint{HistoryPoint(1000, 0.0001)}, nil
}

func (s *stubProvider) SetPersistence(p Persistence) { s.persistence = p }

type capturePersistence struct {
	markets []string
}

func (c *capturePersistence) RecordRates(_ context.Context, _ string, rates []funding.RateRecord) error {
	for _, r := range rates {
		c.markets = append(c.markets, r.Market)
	}
	return nil
}

func TestWithAliasesRenamesMarkets(t *testing.T) {
	stub := &stubProvider{}
	p := WithAliases(stub, map[string]string{"1000pepe": "kPEPE"})
	ctx := context.Background()

	markets, err := p.ListMarkets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kPEPE", markets[0].Symbol)
	assert.Equal(t, "ETH", markets[1].Symbol)

	sink := &capturePersistence{}
	require.True(t, AttachPersistence(p, sink))
	rates, err := p.LatestRates(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kPEPE", rates[0].Market)
	assert.Equal(t, []string{"kPEPE", "ETH"}, sink.markets)

	points, err := p.FundingHistory(ctx, "KPEPE", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, "1000PEPE", stub.historySymbol)
}

func TestWithAliasesEmptyIsIdentity(t *testing.T) {
	stub := &stubProvider{}
	assert.Same(t, Provider(stub), WithAliases(stub, nil))
}

func TestHistoryPointNormalizesToAnnualized(t *testing.T) {
	s := chart.NormalizeSeries(chart.RawSeries{Points: []chart.RawPoint{HistoryPoint(5000, 0.0001)}})
	require.Len(t, s.Samples, 1)
	assert.Equal(t, int64(5000), s.Samples[0].Timestamp)
	assert.InDelta(t, 87.6, s.Samples[0].Value, 1e-9)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup(map[string]Provider{}, "x")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

type taggedStub struct {
	stubProvider
	dex string
}

func (s *taggedStub) Dex() string { return s.dex }

func TestDexOf(t *testing.T) {
	assert.Equal(t, "lighter-eu", DexOf("lighter-eu", &stubProvider{}))
	assert.Equal(t, funding.Lighter, DexOf("lighter-eu", &taggedStub{dex: funding.Lighter}))
	assert.Equal(t, "custom", DexOf("custom", &taggedStub{dex: " "}))

	wrapped := WithAliases(&taggedStub{dex: funding.Lighter}, map[string]string{"1000PEPE": "kPEPE"})
	assert.Equal(t, funding.Lighter, DexOf("lighter-eu", wrapped))
	assert.Equal(t, "lighter-eu", DexOf("lighter-eu", WithAliases(&stubProvider{}, map[string]string{"A": "B"})))
}
