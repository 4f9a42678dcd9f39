package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpdash-api/internal/svc/svctest"
	"perpdash-api/pkg/funding"
	marketpkg "perpdash-api/pkg/market"
)

type recorded struct {
	provider string
	rates    []funding.RateRecord
}

type fakeRecorder struct {
	calls []recorded
	err   error
}

func (f *fakeRecorder) RecordRates(_ context.Context, provider string, rates []funding.RateRecord) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, recorded{provider: provider, rates: rates})
	return nil
}

type fakePruner struct {
	before []int64
}

func (f *fakePruner) DeleteBefore(_ context.Context, beforeMs int64) (int64, error) {
	f.before = append(f.before, beforeMs)
	return 3, nil
}

func fixtureProviders(now time.Time) map[string]marketpkg.Provider {
	hl, lt := svctest.Fixture(now)
	return map[string]marketpkg.Provider{
		funding.Hyperliquid: hl,
		funding.Lighter:     lt,
	}
}

func TestRateIngestorRecordsEveryProvider(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &fakeRecorder{}
	pr := &fakePruner{}
	g := newRateIngestor(fixtureProviders(now), nil, rec, pr, 48*time.Hour)
	g.now = func() time.Time { return now }

	require.NoError(t, g.run(context.Background()))
	require.Len(t, rec.calls, 2)
	assert.Equal(t, funding.Hyperliquid, rec.calls[0].provider)
	assert.Len(t, rec.calls[0].rates, 3)
	assert.Equal(t, funding.Lighter, rec.calls[1].provider)
	assert.Len(t, rec.calls[1].rates, 2)
	assert.Equal(t, []int64{now.Add(-48 * time.Hour).UnixMilli()}, pr.before)
}

func TestRateIngestorFiltersSymbols(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &fakeRecorder{}
	g := newRateIngestor(fixtureProviders(now), []string{" sol ", ""}, rec, nil, 0)

	require.NoError(t, g.run(context.Background()))
	// Lighter does not quote SOL, so only Hyperliquid records.
	require.Len(t, rec.calls, 1)
	require.Len(t, rec.calls[0].rates, 1)
	assert.Equal(t, "SOL", rec.calls[0].rates[0].Market)
}

func TestRateIngestorPartialFailure(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	providers := fixtureProviders(now)
	providers[funding.Lighter].(*svctest.Provider).Err = errors.New("boom")
	rec := &fakeRecorder{}
	pr := &fakePruner{}
	g := newRateIngestor(providers, nil, rec, pr, time.Hour)

	require.NoError(t, g.run(context.Background()))
	require.Len(t, rec.calls, 1)
	assert.Len(t, pr.before, 1)
}

func TestRateIngestorAllProvidersFail(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &fakeRecorder{err: errors.New("db down")}
	pr := &fakePruner{}
	g := newRateIngestor(fixtureProviders(now), nil, rec, pr, time.Hour)

	err := g.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, pr.before)
}

func TestRateIngestorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRecorder{}
	g := newRateIngestor(fixtureProviders(time.Now()), nil, rec, nil, 0)
	require.ErrorIs(t, g.run(ctx), context.Canceled)
	assert.Empty(t, rec.calls)
}
