package funding

import (
	"errors"
	"math"
	"time"

	"perpdash-api/pkg/chart"
)

// ErrInsufficientData is returned when two series share no aligned samples.
var ErrInsufficientData = errors.New("funding: insufficient aligned data")

const (
	defaultAlignTolerance = 30 * time.Minute
	defaultExpectedPoints = 24
	// disagreementPenalty scales a score whose trend runs against its differential.
	disagreementPenalty = 0.5
)

// ScoreOptions tunes ScoreMarket.
type ScoreOptions struct {
	// AlignTolerance is the largest time gap between paired samples.
	AlignTolerance time.Duration
	// ExpectedPoints is the pair count at which confidence reaches 1.
	ExpectedPoints int
}

func (o ScoreOptions) withDefaults() ScoreOptions {
	if o.AlignTolerance <= 0 {
		o.AlignTolerance = defaultAlignTolerance
	}
	if o.ExpectedPoints <= 0 {
		o.ExpectedPoints = defaultExpectedPoints
	}
	return o
}

// ScoreComponents are the statistics of the aligned A-B differential.
type ScoreComponents struct {
	Differential float64 `json:"differential" msgpack:"differential"`
	Volatility   float64 `json:"volatility" msgpack:"volatility"`
	Trend        float64 `json:"trend" msgpack:"trend"`
}

// Score ranks how attractive the A-B funding spread of a market is.
type Score struct {
	Market              string          `json:"market" msgpack:"market"`
	Score               float64         `json:"score" msgpack:"score"`
	HLRate              float64         `json:"hl_rate" msgpack:"hl_rate"`
	LighterRate         float64         `json:"lighter_rate" msgpack:"lighter_rate"`
	DataPoints          int             `json:"data_points" msgpack:"data_points"`
	Components          ScoreComponents `json:"components" msgpack:"components"`
	CurrentDifferential float64         `json:"current_differential" msgpack:"current_differential"`
	Confidence          float64         `json:"confidence" msgpack:"confidence"`
	ExpectedPnLRate     float64         `json:"expected_pnl_rate" msgpack:"expected_pnl_rate"`
}

type alignedPoint struct {
	ts   int64
	diff float64
}

// align pairs every sample of a with the nearest sample of b within
// tolerance. Both slices must be sorted ascending by timestamp.
func align(a, b []chart.Sample, tolerance time.Duration) []alignedPoint {
	out := make([]alignedPoint, 0, len(a))
	limit := float64(tolerance.Milliseconds())
	for _, sa := range a {
		idx, ok := chart.NearestSampleSorted(b, float64(sa.Timestamp))
		if !ok {
			break
		}
		sb := b[idx]
		if math.Abs(float64(sa.Timestamp-sb.Timestamp)) > limit {
			continue
		}
		out = append(out, alignedPoint{ts: sa.Timestamp, diff: sa.Value - sb.Value})
	}
	return out
}

// ScoreMarket scores the spread between series a (Hyperliquid) and b (Lighter).
//
// differential is the mean of aligned a-b values, volatility their standard
// deviation and trend the least squares slope of a-b per day. confidence grows
// linearly with the number of aligned pairs up to ExpectedPoints. The score is
// differential/(1+volatility)*confidence, halved when trend and differential
// point in opposite directions.
func ScoreMarket(market string, a, b chart.Series, opts ScoreOptions) (Score, error) {
	opts = opts.withDefaults()
	points := align(a.Samples, b.Samples, opts.AlignTolerance)
	if len(points) == 0 {
		return Score{Market: market}, ErrInsufficientData
	}

	n := float64(len(points))
	sum := 0.0
	for _, p := range points {
		sum += p.diff
	}
	mean := sum / n
	variance := 0.0
	for _, p := range points {
		d := p.diff - mean
		variance += d * d
	}
	volatility := math.Sqrt(variance / n)
	trend := slopePerDay(points)

	current := points[len(points)-1].diff
	confidence := math.Min(1, n/float64(opts.ExpectedPoints))
	agreement := 1.0
	if trend != 0 && mean != 0 && math.Signbit(trend) != math.Signbit(mean) {
		agreement = disagreementPenalty
	}

	score := Score{
		Market:     market,
		Score:      mean / (1 + volatility) * confidence * agreement,
		DataPoints: len(points),
		Components: ScoreComponents{
			Differential: mean,
			Volatility:   volatility,
			Trend:        trend,
		},
		CurrentDifferential: current,
		Confidence:          confidence,
		ExpectedPnLRate:     math.Abs(current) * confidence,
	}
	if latest, ok := a.Latest(); ok {
		score.HLRate = latest.Value
	}
	if latest, ok := b.Latest(); ok {
		score.LighterRate = latest.Value
	}
	return score, nil
}

func slopePerDay(points []alignedPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	const msPerDay = float64(24 * time.Hour / time.Millisecond)
	origin := points[0].ts
	var sx, sy, sxx, sxy float64
	for _, p := range points {
		x := float64(p.ts-origin) / msPerDay
		sx += x
		sy += p.diff
		sxx += x * x
		sxy += x * p.diff
	}
	n := float64(len(points))
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
