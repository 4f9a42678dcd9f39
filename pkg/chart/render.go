package chart

import (
	"math"
	"sync"
)

// Style holds the colors and font sizes used by Renderer.
type Style struct {
	Background    string  `json:"background" yaml:"background"`
	Grid          string  `json:"grid" yaml:"grid"`
	Label         string  `json:"label" yaml:"label"`
	Crosshair     string  `json:"crosshair" yaml:"crosshair"`
	TooltipFill   string  `json:"tooltipFill" yaml:"tooltip_fill"`
	TooltipBorder string  `json:"tooltipBorder" yaml:"tooltip_border"`
	TooltipText   string  `json:"tooltipText" yaml:"tooltip_text"`
	SeriesDefault string  `json:"seriesDefault" yaml:"series_default"`
	LabelSize     float64 `json:"labelSize" yaml:"label_size"`
	TooltipSize   float64 `json:"tooltipSize" yaml:"tooltip_size"`
	GridLineWidth float64 `json:"gridLineWidth" yaml:"grid_line_width"`
	SeriesWidth   float64 `json:"seriesWidth" yaml:"series_width"`
}

// DefaultStyle matches the dark dashboard palette.
func DefaultStyle() Style {
	return Style{
		Background:    "",
		Grid:          "#374151",
		Label:         "#9ca3af",
		Crosshair:     "#6b7280",
		TooltipFill:   "rgba(17,24,39,0.95)",
		TooltipBorder: "#374151",
		TooltipText:   "#e5e7eb",
		SeriesDefault: "#ffffff",
		LabelSize:     11,
		TooltipSize:   12,
		GridLineWidth: 1,
		SeriesWidth:   2,
	}
}

// merge fills zero fields of s from defaults.
func (s Style) merge(defaults Style) Style {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	pickF := func(v, d float64) float64 {
		if v <= 0 {
			return d
		}
		return v
	}
	return Style{
		Background:    pick(s.Background, defaults.Background),
		Grid:          pick(s.Grid, defaults.Grid),
		Label:         pick(s.Label, defaults.Label),
		Crosshair:     pick(s.Crosshair, defaults.Crosshair),
		TooltipFill:   pick(s.TooltipFill, defaults.TooltipFill),
		TooltipBorder: pick(s.TooltipBorder, defaults.TooltipBorder),
		TooltipText:   pick(s.TooltipText, defaults.TooltipText),
		SeriesDefault: pick(s.SeriesDefault, defaults.SeriesDefault),
		LabelSize:     pickF(s.LabelSize, defaults.LabelSize),
		TooltipSize:   pickF(s.TooltipSize, defaults.TooltipSize),
		GridLineWidth: pickF(s.GridLineWidth, defaults.GridLineWidth),
		SeriesWidth:   pickF(s.SeriesWidth, defaults.SeriesWidth),
	}
}

const (
	gridBands = 5
	timeTicks = 6
	// timeLabelOffset is the distance of time labels from the bottom edge.
	timeLabelOffset = 20.0
	// valueLabelGap separates value labels from the plotting area.
	valueLabelGap = 10.0
)

// Renderer draws series onto a Surface. Every Draw repaints the whole frame.
type Renderer struct {
	mu      sync.Mutex
	surface Surface
	style   Style
	vp      Viewport
	sized   bool
}

// RendererOption customises a Renderer.
type RendererOption func(*Renderer)

// WithStyle overrides the default palette; zero fields keep their defaults.
func WithStyle(style Style) RendererOption {
	return func(r *Renderer) {
		r.style = style.merge(DefaultStyle())
	}
}

// NewRenderer binds a renderer to surface. Resize must be called before Draw.
func NewRenderer(surface Surface, opts ...RendererOption) *Renderer {
	r := &Renderer{surface: surface, style: DefaultStyle()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resize reallocates the surface for vp and resets its transform.
func (r *Renderer) Resize(vp Viewport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.surface == nil {
		return ErrNoSurface
	}
	w, h := vp.PixelSize()
	if err := r.surface.Reset(w, h, vp.Ratio()); err != nil {
		r.sized = false
		return err
	}
	r.vp = vp
	r.sized = true
	return nil
}

// Viewport returns the viewport set by the last successful Resize.
func (r *Renderer) Viewport() Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vp
}

// Draw clears the surface and paints grid, labels and one line per series.
// Samples are drawn from a time-sorted copy, so callers may pass series in
// any order. When hoverX is a finite number the crosshair, markers and
// tooltip are drawn and the resolved hover state is returned.
func (r *Renderer) Draw(series []Series, ct ChartType, hoverX *float64) (*HoverState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.surface == nil || !r.sized || !r.surface.Ready() {
		return nil, ErrNoSurface
	}
	s := r.surface
	s.Clear(r.style.Background)

	series = sortedSeries(series)
	m, ok := NewMapper(series, r.vp)
	if !ok {
		return nil, nil
	}
	r.drawAxes(m, ct)
	r.drawSeries(m, series)
	if hoverX == nil || math.IsNaN(*hoverX) || math.IsInf(*hoverX, 0) {
		return nil, nil
	}
	return r.drawHover(m, series, ct, *hoverX), nil
}

func sortedSeries(series []Series) []Series {
	out := make([]Series, len(series))
	for i, s := range series {
		out[i] = s.Sorted()
	}
	return out
}

func (r *Renderer) drawAxes(m *Mapper, ct ChartType) {
	s, vp := r.surface, r.vp
	chartH := vp.ChartHeight()

	s.SetColor(r.style.Grid)
	s.SetLineWidth(r.style.GridLineWidth)
	for i := 0; i <= gridBands; i++ {
		y := vp.Padding.Top + chartH/gridBands*float64(i)
		s.Line(Point{vp.Padding.Left, y}, Point{vp.Width - vp.Padding.Right, y})
	}

	s.SetFontSize(r.style.LabelSize)
	s.SetColor(r.style.Label)
	for i := 0; i <= gridBands; i++ {
		y := vp.Padding.Top + chartH/gridBands*float64(i)
		s.Text(ct.FormatValue(m.ValueTick(i, gridBands)), Point{vp.Padding.Left - valueLabelGap, y}, AlignRight, BaselineMiddle)
	}
	for i := 0; i < timeTicks; i++ {
		t := m.TimeTick(i, timeTicks)
		s.Text(FormatTimeTick(t, m.TimeRange), Point{m.XForTime(t), vp.Height - timeLabelOffset}, AlignCenter, BaselineTop)
	}
}

func (r *Renderer) drawSeries(m *Mapper, series []Series) {
	s := r.surface
	s.SetLineWidth(r.style.SeriesWidth)
	for _, line := range series {
		if len(line.Samples) == 0 {
			continue
		}
		s.SetColor(r.colorOf(line))
		points := make([]Point, 0, len(line.Samples))
		for _, sample := range line.Samples {
			points = append(points, Point{m.XForTime(float64(sample.Timestamp)), m.YForValue(sample.Value)})
		}
		s.Polyline(points)
	}
}

func (r *Renderer) drawHover(m *Mapper, series []Series, ct ChartType, x float64) *HoverState {
	s, vp := r.surface, r.vp
	s.SetFontSize(r.style.TooltipSize)
	state := ResolveHover(m, series, ct, x, r.style.SeriesDefault, s.MeasureString)

	s.SetColor(r.style.Crosshair)
	s.SetLineWidth(r.style.GridLineWidth)
	s.Line(Point{state.X, vp.Padding.Top}, Point{state.X, vp.Height - vp.Padding.Bottom})

	for _, p := range state.Points {
		s.SetColor(p.Color)
		s.FillCircle(Point{p.X, p.Y}, MarkerRadius)
	}

	box := state.Tooltip
	s.SetColor(r.style.TooltipFill)
	s.FillRect(box.X, box.Y, box.Width, box.Height)
	s.SetColor(r.style.TooltipBorder)
	s.StrokeRect(box.X, box.Y, box.Width, box.Height)
	s.SetColor(r.style.TooltipText)
	for i, line := range box.Lines {
		s.Text(line, Point{box.X + TooltipPadX, box.Y + TooltipPadY + TooltipLineHeight*float64(i)}, AlignLeft, BaselineTop)
	}
	return state
}

func (r *Renderer) colorOf(s Series) string {
	if s.Color != "" {
		return s.Color
	}
	return r.style.SeriesDefault
}
