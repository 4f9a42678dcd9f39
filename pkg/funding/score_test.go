package funding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpdash-api/pkg/chart"
)

const hourMs = int64(time.Hour / time.Millisecond)

func hourlySeries(name string, values ...float64) chart.Series {
	samples := make([]chart.Sample, 0, len(values))
	for i, v := range values {
		samples = append(samples, chart.Sample{Timestamp: int64(i) * hourMs, Value: v})
	}
	return chart.NewSeries(name, "", samples)
}

func TestScoreMarketConstantSpread(t *testing.T) {
	a := hourlySeries(Hyperliquid, 12, 12, 12, 12)
	b := hourlySeries(Lighter, 10, 10, 10, 10)

	score, err := ScoreMarket("ETH", a, b, ScoreOptions{ExpectedPoints: 8})
	require.NoError(t, err)
	assert.Equal(t, "ETH", score.Market)
	assert.Equal(t, 4, score.DataPoints)
	assert.InDelta(t, 2.0, score.Components.Differential, 1e-9)
	assert.InDelta(t, 0.0, score.Components.Volatility, 1e-9)
	assert.InDelta(t, 0.0, score.Components.Trend, 1e-9)
	assert.InDelta(t, 0.5, score.Confidence, 1e-9)
	assert.InDelta(t, 1.0, score.Score, 1e-9)
	assert.InDelta(t, 2.0, score.CurrentDifferential, 1e-9)
	assert.InDelta(t, 1.0, score.ExpectedPnLRate, 1e-9)
	assert.Equal(t, 12.0, score.HLRate)
	assert.Equal(t, 10.0, score.LighterRate)
}

func TestScoreMarketTrendAgainstSpreadIsPenalised(t *testing.T) {
	// spread 4,3,2,1 narrows by 1 per hour.
	a := hourlySeries(Hyperliquid, 4, 3, 2, 1)
	b := hourlySeries(Lighter, 0, 0, 0, 0)

	score, err := ScoreMarket("BTC", a, b, ScoreOptions{ExpectedPoints: 4})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, score.Components.Differential, 1e-9)
	assert.InDelta(t, -24.0, score.Components.Trend, 1e-9)
	vol := score.Components.Volatility
	assert.InDelta(t, 1.118033988749895, vol, 1e-9)
	assert.InDelta(t, 2.5/(1+vol)*0.5, score.Score, 1e-9)
	assert.InDelta(t, 1.0, score.CurrentDifferential, 1e-9)
}

func TestScoreMarketAlignsWithinTolerance(t *testing.T) {
	a := hourlySeries(Hyperliquid, 5, 5, 5)
	b := chart.NewSeries(Lighter, "", []chart.Sample{
		{Timestamp: 10 * 60 * 1000, Value: 1},
		{Timestamp: 2*hourMs + 10*60*1000, Value: 1},
	})

	score, err := ScoreMarket("SOL", a, b, ScoreOptions{AlignTolerance: 15 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, 2, score.DataPoints)
	assert.InDelta(t, 4.0, score.Components.Differential, 1e-9)
}

func TestScoreMarketWithoutOverlap(t *testing.T) {
	a := hourlySeries(Hyperliquid, 1, 2)
	_, err := ScoreMarket("ETH", a, chart.Series{Name: Lighter}, ScoreOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)

	far := chart.NewSeries(Lighter, "", []chart.Sample{{Timestamp: 100 * hourMs, Value: 1}})
	_, err = ScoreMarket("ETH", a, far, ScoreOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}
