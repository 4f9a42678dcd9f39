package chart

import "math"

const (
	// ValueEpsilon is the smallest value range used for vertical scaling.
	ValueEpsilon = 1e-9
	// MinTimeRange is the smallest time range, in milliseconds.
	MinTimeRange = 1.0
	// MinPlotSize is the smallest plotting area edge in CSS pixels.
	MinPlotSize = 10.0
)

// Padding reserves space around the plotting area, in CSS pixels.
type Padding struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// DefaultPadding leaves room for value labels on the left and time labels below.
var DefaultPadding = Padding{Top: 20, Right: 20, Bottom: 40, Left: 60}

// Viewport describes the drawable area in CSS pixels.
type Viewport struct {
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	DevicePixelRatio float64 `json:"dpr"`
	Padding          Padding `json:"padding"`
}

// NewViewport returns a viewport with DefaultPadding.
func NewViewport(width, height, dpr float64) Viewport {
	return Viewport{Width: width, Height: height, DevicePixelRatio: dpr, Padding: DefaultPadding}
}

// Ratio returns the device pixel ratio, defaulting to 1 when unset or invalid.
func (v Viewport) Ratio() float64 {
	if v.DevicePixelRatio <= 0 || math.IsNaN(v.DevicePixelRatio) || math.IsInf(v.DevicePixelRatio, 0) {
		return 1
	}
	return v.DevicePixelRatio
}

// ChartWidth is the plotting area width.
func (v Viewport) ChartWidth() float64 {
	return math.Max(MinPlotSize, v.Width-v.Padding.Left-v.Padding.Right)
}

// ChartHeight is the plotting area height.
func (v Viewport) ChartHeight() float64 {
	return math.Max(MinPlotSize, v.Height-v.Padding.Top-v.Padding.Bottom)
}

// PixelSize is the backing store size in device pixels.
func (v Viewport) PixelSize() (int, int) {
	dpr := v.Ratio()
	w := int(math.Floor(v.Width * dpr))
	h := int(math.Floor(v.Height * dpr))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// ClampX limits a CSS x coordinate to the horizontal extent of the plotting area.
// NaN clamps to the left edge.
func (v Viewport) ClampX(x float64) float64 {
	if math.IsNaN(x) {
		return v.Padding.Left
	}
	return math.Max(v.Padding.Left, math.Min(x, v.Width-v.Padding.Right))
}

// Mapper projects (time, value) pairs onto viewport coordinates.
type Mapper struct {
	vp Viewport

	MinTime    int64
	MaxTime    int64
	MinValue   float64
	MaxValue   float64
	TimeRange  float64
	ValueRange float64
}

// NewMapper derives data bounds across all series. It reports false when no
// series holds a sample, meaning there is nothing to plot.
func NewMapper(series []Series, vp Viewport) (*Mapper, bool) {
	m := &Mapper{
		vp:       vp,
		MinTime:  math.MaxInt64,
		MaxTime:  math.MinInt64,
		MinValue: math.Inf(1),
		MaxValue: math.Inf(-1),
	}
	count := 0
	for _, s := range series {
		for _, sample := range s.Samples {
			count++
			if sample.Timestamp < m.MinTime {
				m.MinTime = sample.Timestamp
			}
			if sample.Timestamp > m.MaxTime {
				m.MaxTime = sample.Timestamp
			}
			if sample.Value < m.MinValue {
				m.MinValue = sample.Value
			}
			if sample.Value > m.MaxValue {
				m.MaxValue = sample.Value
			}
		}
	}
	if count == 0 {
		return nil, false
	}
	m.ValueRange = math.Max(ValueEpsilon, m.MaxValue-m.MinValue)
	m.TimeRange = math.Max(MinTimeRange, float64(m.MaxTime-m.MinTime))
	return m, true
}

// Viewport returns the viewport the mapper projects into.
func (m *Mapper) Viewport() Viewport {
	return m.vp
}

// XForTime maps a timestamp to a CSS x coordinate.
func (m *Mapper) XForTime(t float64) float64 {
	return m.vp.Padding.Left + (t-float64(m.MinTime))/m.TimeRange*m.vp.ChartWidth()
}

// YForValue maps a value to a CSS y coordinate; larger values sit higher.
func (m *Mapper) YForValue(v float64) float64 {
	h := m.vp.ChartHeight()
	return m.vp.Padding.Top + h - (v-m.MinValue)/m.ValueRange*h
}

// TimeForX maps a CSS x coordinate back to a timestamp after clamping it to
// the plotting area.
func (m *Mapper) TimeForX(x float64) float64 {
	cx := m.vp.ClampX(x)
	return float64(m.MinTime) + (cx-m.vp.Padding.Left)/m.vp.ChartWidth()*m.TimeRange
}

// ValueTick returns the value labelled on horizontal gridline i of n bands, top down.
func (m *Mapper) ValueTick(i, bands int) float64 {
	return m.MaxValue - m.ValueRange/float64(bands)*float64(i)
}

// TimeTick returns the timestamp of tick i out of n evenly spaced ticks.
func (m *Mapper) TimeTick(i, ticks int) float64 {
	if ticks < 2 {
		return float64(m.MinTime)
	}
	return float64(m.MinTime) + m.TimeRange*float64(i)/float64(ticks-1)
}
