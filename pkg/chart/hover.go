package chart

import (
	"math"
	"sort"
)

// Tooltip geometry, in CSS pixels.
const (
	TooltipPadX       = 8.0
	TooltipPadY       = 6.0
	TooltipLineHeight = 16.0
	TooltipOffsetX    = 10.0
	TooltipOffsetY    = 8.0
	MarkerRadius      = 3.0
)

// NearestSample returns the index of the sample closest in time to t.
// Ties resolve to the earliest index. It reports false for an empty slice.
func NearestSample(samples []Sample, t float64) (int, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	best, bestDist := 0, math.Inf(1)
	for i, s := range samples {
		d := math.Abs(float64(s.Timestamp) - t)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, true
}

// NearestSampleSorted is NearestSample for samples sorted ascending by
// timestamp, found by binary search. Results match NearestSample.
func NearestSampleSorted(samples []Sample, t float64) (int, bool) {
	n := len(samples)
	if n == 0 {
		return 0, false
	}
	next := sort.Search(n, func(i int) bool { return float64(samples[i].Timestamp) >= t })
	if next == 0 {
		return 0, true
	}
	prev := next - 1
	if next < n {
		dPrev := t - float64(samples[prev].Timestamp)
		dNext := float64(samples[next].Timestamp) - t
		if dNext < dPrev {
			return next, true
		}
	}
	ts := samples[prev].Timestamp
	first := sort.Search(n, func(i int) bool { return samples[i].Timestamp >= ts })
	return first, true
}

// HoverPoint is the sample picked for one series under the pointer.
type HoverPoint struct {
	Series string  `json:"series"`
	Color  string  `json:"color"`
	Sample Sample  `json:"sample"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Label  string  `json:"label"`
}

// TooltipBox is a laid out tooltip rectangle with its text lines.
type TooltipBox struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Lines  []string `json:"lines"`
}

// HoverState describes everything drawn for a pointer position.
type HoverState struct {
	X       float64      `json:"x"`
	Time    float64      `json:"time"`
	Header  string       `json:"header"`
	Points  []HoverPoint `json:"points"`
	Tooltip TooltipBox   `json:"tooltip"`
}

// ResolveHover computes the hover overlay for CSS x coordinate x. measure
// reports the rendered width of a tooltip line.
func ResolveHover(m *Mapper, series []Series, ct ChartType, x float64, defaultColor string, measure func(string) float64) *HoverState {
	vp := m.Viewport()
	cx := vp.ClampX(x)
	t := m.TimeForX(cx)
	state := &HoverState{X: cx, Time: t, Header: FormatHoverTime(t)}
	lines := []string{state.Header}
	for _, s := range series {
		idx, ok := NearestSampleSorted(s.Samples, t)
		if !ok {
			continue
		}
		sample := s.Samples[idx]
		c := s.Color
		if c == "" {
			c = defaultColor
		}
		label := s.Name + ": " + ct.FormatValue(sample.Value)
		state.Points = append(state.Points, HoverPoint{
			Series: s.Name,
			Color:  c,
			Sample: sample,
			X:      m.XForTime(float64(sample.Timestamp)),
			Y:      m.YForValue(sample.Value),
			Label:  label,
		})
		lines = append(lines, label)
	}
	state.Tooltip = LayoutTooltip(lines, measure, cx, vp)
	return state
}

// LayoutTooltip sizes the tooltip to its widest line and places it to the
// right of the hover line, pulled left when it would cross the right padding.
func LayoutTooltip(lines []string, measure func(string) float64, hoverX float64, vp Viewport) TooltipBox {
	widest := 0.0
	for _, line := range lines {
		if w := measure(line); w > widest {
			widest = w
		}
	}
	w := widest + TooltipPadX*2
	h := TooltipPadY*2 + TooltipLineHeight*float64(len(lines))
	return TooltipBox{
		X:      math.Min(hoverX+TooltipOffsetX, vp.Width-vp.Padding.Right-w),
		Y:      vp.Padding.Top + TooltipOffsetY,
		Width:  w,
		Height: h,
		Lines:  lines,
	}
}
