package chart

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStats(t *testing.T) {
	series := Normalize([]RawSeries{{
		Name: "hyperliquid",
		Points: []RawPoint{
			{"timestamp": 1000.0, "value": 1.0},
			{"timestamp": 2000.0, "value": 5.0},
			{"timestamp": 3000.0, "value": 3.0},
		},
	}})
	require.Len(t, series, 1)
	s := series[0]
	require.Len(t, s.Samples, 3)
	require.NotNil(t, s.Min)
	require.NotNil(t, s.Max)
	require.NotNil(t, s.Mean)
	assert.InDelta(t, 1.0, *s.Min, 1e-12)
	assert.InDelta(t, 5.0, *s.Max, 1e-12)
	assert.InDelta(t, 3.0, *s.Mean, 1e-12)
}

func TestNormalizeDropsMalformedPoints(t *testing.T) {
	series := NormalizeSeries(RawSeries{
		Name: "lighter",
		Points: []RawPoint{
			{"timestamp": 1000.0, "value": 1.0},
			{"timestamp": "not-a-date", "value": 2.0},
			{"timestamp": 3000.0, "value": "abc"},
			{"timestamp": 4000.0, "value": math.NaN()},
			{"timestamp": math.Inf(1), "value": 1.0},
			{"value": 9.0},
			{"timestamp": 5000.0, "value": 4.0},
		},
	})
	require.Len(t, series.Samples, 2)
	assert.Equal(t, []Sample{{Timestamp: 1000, Value: 1}, {Timestamp: 5000, Value: 4}}, series.Samples)
}

func TestNormalizeValueFallbackOrder(t *testing.T) {
	tests := []struct {
		name  string
		point RawPoint
		want  float64
	}{
		{name: "value wins", point: RawPoint{"timestamp": 1.0, "value": 1.5, "rate": 2.5, "annualized_rate": 3.5}, want: 1.5},
		{name: "rate when value missing", point: RawPoint{"timestamp": 1.0, "rate": 2.5, "annualized_rate": 3.5}, want: 2.5},
		{name: "nil value skipped", point: RawPoint{"timestamp": 1.0, "value": nil, "rate": 2.5}, want: 2.5},
		{name: "annualized rate last", point: RawPoint{"timestamp": 1.0, "annualized_rate": 3.5}, want: 3.5},
		{name: "absent defaults to zero", point: RawPoint{"timestamp": 1.0}, want: 0},
		{name: "numeric string", point: RawPoint{"timestamp": 1.0, "rate": "0.0125"}, want: 0.0125},
		{name: "json number", point: RawPoint{"timestamp": 1.0, "value": json.Number("7.25")}, want: 7.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NormalizeSeries(RawSeries{Points: []RawPoint{tt.point}})
			require.Len(t, s.Samples, 1)
			assert.InDelta(t, tt.want, s.Samples[0].Value, 1e-12)
		})
	}
}

func TestNormalizeParsesDateStrings(t *testing.T) {
	s := NormalizeSeries(RawSeries{Points: []RawPoint{
		{"timestamp": "2024-01-02T00:00:00Z", "value": 1.0},
		{"timestamp": "2024-01-01", "value": 2.0},
		{"timestamp": "1704067200000", "value": 3.0},
	}})
	require.Len(t, s.Samples, 3)
	assert.Equal(t, int64(1704067200000), s.Samples[0].Timestamp)
	assert.Equal(t, int64(1704067200000), s.Samples[1].Timestamp)
	assert.Equal(t, int64(1704153600000), s.Samples[2].Timestamp)
	// stable sort keeps input order for equal timestamps
	assert.Equal(t, 2.0, s.Samples[0].Value)
	assert.Equal(t, 3.0, s.Samples[1].Value)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := []RawSeries{{
		Name:  "hyperliquid",
		Color: "#10b981",
		Points: []RawPoint{
			{"timestamp": 3000.0, "rate": 0.3},
			{"timestamp": "1970-01-01T00:00:01Z", "value": "0.1"},
			{"timestamp": 2000.0, "annualized_rate": 0.2},
			{"timestamp": "bad", "value": 1.0},
		},
	}}
	first := Normalize(raw)
	again := make([]RawSeries, 0, len(first))
	for _, s := range first {
		again = append(again, s.Raw())
	}
	second := Normalize(again)
	assert.Equal(t, first, second)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	points := []RawPoint{{"timestamp": 2000.0, "value": 2.0}, {"timestamp": 1000.0, "value": 1.0}}
	Normalize([]RawSeries{{Points: points}})
	assert.Equal(t, 2000.0, points[0]["timestamp"])
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
	s := NormalizeSeries(RawSeries{Name: "empty"})
	assert.Empty(t, s.Samples)
	assert.Nil(t, s.Min)
	assert.Nil(t, s.Max)
	assert.Nil(t, s.Mean)
	_, ok := s.Latest()
	assert.False(t, ok)
}

func TestSeriesLatest(t *testing.T) {
	s := NewSeries("x", "", []Sample{{Timestamp: 5, Value: 2}, {Timestamp: 9, Value: 7}, {Timestamp: 1, Value: 3}})
	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, Sample{Timestamp: 9, Value: 7}, latest)
}

func TestSummarize(t *testing.T) {
	rows := Summarize([]Series{
		NewSeries("hyperliquid", "#10b981", []Sample{{1, 0.1}, {3, 0.3}, {2, 0.2}}),
		NewSeries("lighter", "#3b82f6", nil),
	}, Funding)
	require.Len(t, rows, 2)
	assert.Equal(t, SummaryRow{Name: "hyperliquid", Color: "#10b981", Current: "0.3000", Min: "0.1000", Max: "0.3000", Mean: "0.2000"}, rows[0])
	assert.Equal(t, NoData, rows[1].Current)
	assert.Equal(t, NoData, rows[1].Mean)
}

func TestSummarizeRecomputesStats(t *testing.T) {
	rows := Summarize([]Series{{Name: "lighter", Samples: []Sample{{Timestamp: 9, Value: 4}, {Timestamp: 1, Value: 2}}}}, Funding)
	require.Len(t, rows, 1)
	assert.Equal(t, SummaryRow{Name: "lighter", Current: "4.0000", Min: "2.0000", Max: "4.0000", Mean: "3.0000"}, rows[0])
}
