package lighter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
	"perpdash-api/pkg/market"
)

const historyStartSec = int64(1_700_000_000)

type mockLighter struct {
	mu      sync.Mutex
	queries []url.Values
	calls   map[string]int
}

func (m *mockLighter) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/orderBooks", func(w http.ResponseWriter, r *http.Request) {
		m.count(r)
		writeJSON(w, map[string]interface{}{
			"code": 200,
			"order_books": []map[string]interface{}{
				{"symbol": "ETH", "market_id": 0, "status": "active", "taker_fee": "0.0000", "maker_fee": "0.0000", "supported_size_decimals": 4, "supported_price_decimals": 2},
				{"symbol": "BTC", "market_id": 1, "status": "active", "taker_fee": "0.0000", "maker_fee": "0.0000", "supported_size_decimals": 5, "supported_price_decimals": 1},
				{"symbol": "OLD", "market_id": 7, "status": "inactive"},
			},
		})
	})
	mux.HandleFunc("/api/v1/funding-rates", func(w http.ResponseWriter, r *http.Request) {
		m.count(r)
		writeJSON(w, map[string]interface{}{
			"code": 200,
			"funding_rates": []map[string]interface{}{
				{"market_id": 0, "exchange": "lighter", "symbol": "ETH", "rate": 0.0001},
				{"market_id": 0, "exchange": "binance", "symbol": "ETH", "rate": 0.0003},
				{"market_id": 1, "exchange": "lighter", "symbol": "BTC", "rate": "-0.00002"},
				{"market_id": 7, "exchange": "lighter", "symbol": "OLD", "rate": 0.5},
			},
		})
	})
	mux.HandleFunc("/api/v1/fundings", func(w http.ResponseWriter, r *http.Request) {
		m.count(r)
		m.mu.Lock()
		m.queries = append(m.queries, r.URL.Query())
		m.mu.Unlock()
		writeJSON(w, map[string]interface{}{
			"code":       200,
			"resolution": "1h",
			"fundings": []map[string]interface{}{
				{"timestamp": historyStartSec, "value": "0.12", "rate": "0.0001", "direction": "long"},
				{"timestamp": historyStartSec + 3600, "value": "0.10", "rate": "0.0002", "direction": "short"},
				{"timestamp": (historyStartSec + 7200) * 1000, "value": "0.11", "rate": 0.0003, "direction": ""},
			},
		})
	})
	return mux
}

func (m *mockLighter) count(r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[r.URL.Path]++
}

func (m *mockLighter) callsTo(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

func newMockProvider(t *testing.T) (*httptest.Server, *mockLighter, *Provider) {
	t.Helper()
	mock := &mockLighter{}
	server := httptest.NewServer(mock.handler())
	provider := NewProvider(WithClientOptions(
		WithBaseURL(server.URL+"/"),
		WithHTTPClient(server.Client()),
		WithMaxRetries(0),
	))
	provider.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return server, mock, provider
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func TestProviderLatestRates(t *testing.T) {
	server, _, provider := newMockProvider(t)
	defer server.Close()

	rates, err := provider.LatestRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)

	require.Equal(t, "ETH", rates[0].Market)
	require.Equal(t, funding.Lighter, rates[0].Dex)
	require.InDelta(t, 0.0001, rates[0].Rate, 1e-12)
	require.InDelta(t, 87.6, rates[0].AnnualizedRate, 1e-9)
	require.Equal(t, time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC).UnixMilli(), rates[0].Timestamp)
	require.Equal(t, "BTC", rates[1].Market)
	require.InDelta(t, -17.52, rates[1].AnnualizedRate, 1e-9)
}

func TestProviderLatestRatesCaches(t *testing.T) {
	server, mock, provider := newMockProvider(t)
	defer server.Close()

	_, err := provider.LatestRates(context.Background())
	require.NoError(t, err)
	_, err = provider.LatestRates(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, mock.callsTo("/api/v1/funding-rates"))
	require.Equal(t, 1, mock.callsTo("/api/v1/orderBooks"))
}

func TestProviderLatestRatesPersists(t *testing.T) {
	server, _, provider := newMockProvider(t)
	defer server.Close()
	sink := &recordingPersistence{err: errors.New("db down")}
	provider.SetPersistence(sink)

	rates, err := provider.LatestRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	require.Equal(t, []string{funding.Lighter}, sink.providers)
}

func TestProviderListMarkets(t *testing.T) {
	server, _, provider := newMockProvider(t)
	defer server.Close()

	markets, err := provider.ListMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 3)
	assert.Equal(t, "BTC", markets[1].Symbol)
	assert.Equal(t, int64(1), markets[1].MarketID)
	assert.True(t, markets[1].IsActive)
	assert.False(t, markets[2].IsActive)
}

func TestProviderFundingHistory(t *testing.T) {
	server, mock, provider := newMockProvider(t)
	defer server.Close()

	start := time.Unix(historyStartSec, 0)
	end := start.Add(2 * time.Hour)
	points, err := provider.FundingHistory(context.Background(), "btcusdt", start, end)
	require.NoError(t, err)
	require.Len(t, points, 3)

	require.Len(t, mock.queries, 1)
	q := mock.queries[0]
	assert.Equal(t, "1", q.Get("market_id"))
	assert.Equal(t, "1h", q.Get("resolution"))
	assert.Equal(t, "1700000000", q.Get("start_timestamp"))
	assert.Equal(t, "1700007200", q.Get("end_timestamp"))
	assert.Equal(t, "1000", q.Get("count_back"))

	series := chart.NormalizeSeries(chart.RawSeries{Name: funding.Lighter, Points: points})
	require.Len(t, series.Samples, 3)
	assert.Equal(t, historyStartSec*1000, series.Samples[0].Timestamp)
	assert.Equal(t, (historyStartSec+7200)*1000, series.Samples[2].Timestamp)
	assert.InDelta(t, funding.Annualize(0.0001), series.Samples[0].Value, 1e-9)
	assert.InDelta(t, funding.Annualize(-0.0002), series.Samples[1].Value, 1e-9)
	assert.InDelta(t, funding.Annualize(0.0003), series.Samples[2].Value, 1e-9)
}

func TestProviderFundingHistoryUnknownSymbol(t *testing.T) {
	server, _, provider := newMockProvider(t)
	defer server.Close()

	_, err := provider.FundingHistory(context.Background(), "DOGE", time.Unix(historyStartSec, 0), time.Unix(historyStartSec+60, 0))
	require.ErrorIs(t, err, market.ErrSymbolNotFound)
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{in: 1_700_000_000, want: 1_700_000_000_000},
		{in: 1_700_000_000_000, want: 1_700_000_000_000},
		{in: 0, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTimestamp(tt.in))
	}
}

func TestNumberUnmarshal(t *testing.T) {
	var payload struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"-0.25","c":"","d":null}`), &payload))
	assert.Equal(t, 1.5, payload.A.Float())
	assert.Equal(t, -0.25, payload.B.Float())
	assert.Equal(t, 0.0, payload.C.Float())
	assert.Equal(t, 0.0, payload.D.Float())

	var bad Number
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

func TestClientAPIErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"code": 21500, "message": "market not found"})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithMaxRetries(0))
	_, err := client.GetFundingRates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api code 21500")
}

func TestClientRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]interface{}{"code": 200, "funding_rates": []interface{}{}})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithMaxRetries(1))
	rates, err := client.GetFundingRates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rates)
	assert.Equal(t, 2, calls)
}

type recordingPersistence struct {
	mu        sync.Mutex
	providers []string
	err       error
}

func (r *recordingPersistence) RecordRates(_ context.Context, provider string, _ []funding.RateRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, provider)
	return r.err
}
