package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSurface logs drawing calls instead of rasterising them.
type recordingSurface struct {
	ready  bool
	width  int
	height int
	scale  float64
	resets int
	ops    []string
	texts  []string
	lines  [][]Point
	color  string
}

func (s *recordingSurface) Reset(w, h int, scale float64) error {
	s.ready, s.width, s.height, s.scale = true, w, h, scale
	s.resets++
	s.ops = nil
	s.texts = nil
	return nil
}

func (s *recordingSurface) Ready() bool { return s.ready }

func (s *recordingSurface) Clear(bg string) {
	s.ops = nil
	s.texts = nil
	s.lines = nil
	s.ops = append(s.ops, "clear")
}

func (s *recordingSurface) SetColor(c string) { s.color = c }

func (s *recordingSurface) SetLineWidth(float64) {}

func (s *recordingSurface) SetFontSize(float64) {}

func (s *recordingSurface) MeasureString(t string) float64 { return float64(len(t)) * 6 }

func (s *recordingSurface) Line(a, b Point) {
	s.ops = append(s.ops, fmt.Sprintf("line %s %.2f,%.2f-%.2f,%.2f", s.color, a.X, a.Y, b.X, b.Y))
}

func (s *recordingSurface) Polyline(points []Point) {
	s.lines = append(s.lines, append([]Point(nil), points...))
	s.ops = append(s.ops, fmt.Sprintf("polyline %s %d", s.color, len(points)))
}

func (s *recordingSurface) FillCircle(c Point, r float64) {
	s.ops = append(s.ops, fmt.Sprintf("circle %s %.2f,%.2f r=%.0f", s.color, c.X, c.Y, r))
}

func (s *recordingSurface) FillRect(x, y, w, h float64) {
	s.ops = append(s.ops, fmt.Sprintf("fillrect %s", s.color))
}

func (s *recordingSurface) StrokeRect(x, y, w, h float64) {
	s.ops = append(s.ops, fmt.Sprintf("strokerect %s", s.color))
}

func (s *recordingSurface) Text(t string, at Point, align Align, baseline Baseline) {
	s.ops = append(s.ops, "text")
	s.texts = append(s.texts, t)
}

func (s *recordingSurface) count(prefix string) int {
	n := 0
	for _, op := range s.ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func fundingSeries() []Series {
	return []Series{
		NewSeries("hyperliquid", "#10b981", []Sample{{Timestamp: 0, Value: 0.01}, {Timestamp: 3_600_000, Value: 0.03}, {Timestamp: 7_200_000, Value: 0.02}}),
		NewSeries("lighter", "#3b82f6", []Sample{{Timestamp: 0, Value: 0.02}, {Timestamp: 7_200_000, Value: 0.01}}),
	}
}

func TestRendererDrawsGridLabelsAndLines(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	require.NoError(t, r.Resize(NewViewport(400, 300, 1)))

	state, err := r.Draw(fundingSeries(), Funding, nil)
	require.NoError(t, err)
	assert.Nil(t, state)

	assert.Equal(t, "clear", surface.ops[0])
	assert.Equal(t, 6, surface.count("line #374151"))
	assert.Equal(t, 12, surface.count("text"))
	assert.Equal(t, 1, surface.count("polyline #10b981 3"))
	assert.Equal(t, 1, surface.count("polyline #3b82f6 2"))
	assert.Equal(t, 0, surface.count("circle"))

	assert.Equal(t, "0.0300", surface.texts[0])
	assert.Equal(t, "0.0100", surface.texts[5])
	assert.Equal(t, "00:00 UTC", surface.texts[6])
	assert.Equal(t, "02:00 UTC", surface.texts[11])
}

func TestRendererHoverOverlay(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	require.NoError(t, r.Resize(NewViewport(400, 300, 2)))

	x := 1000.0
	state, err := r.Draw(fundingSeries(), Funding, &x)
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, 380.0, state.X)
	assert.Equal(t, 1, surface.count("line #6b7280 380.00,20.00-380.00,260.00"))
	assert.Equal(t, 2, surface.count("circle"))
	assert.Equal(t, 1, surface.count("fillrect rgba(17,24,39,0.95)"))
	assert.Equal(t, 1, surface.count("strokerect #374151"))
	assert.Equal(t, []string{"1970-01-01 02:00 UTC", "hyperliquid: 0.0200", "lighter: 0.0100"}, surface.texts[12:])
}

func TestRendererSortsSamplesBeforeDrawing(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	require.NoError(t, r.Resize(NewViewport(280, 300, 1)))

	samples := []Sample{{Timestamp: 100, Value: 1}, {Timestamp: 0, Value: 2}, {Timestamp: 200, Value: 3}, {Timestamp: 50, Value: 4}}
	series := []Series{{Name: "hyperliquid", Color: "#10b981", Samples: samples}}

	// chart width is 200 px for a 200 ms range, so x=120 maps to t=60
	x := 120.0
	state, err := r.Draw(series, Funding, &x)
	require.NoError(t, err)
	require.NotNil(t, state)

	require.Len(t, surface.lines, 1)
	xs := make([]float64, 0, len(surface.lines[0]))
	for _, p := range surface.lines[0] {
		xs = append(xs, p.X)
	}
	assert.Equal(t, []float64{60, 110, 160, 260}, xs)

	require.Len(t, state.Points, 1)
	assert.Equal(t, Sample{Timestamp: 50, Value: 4}, state.Points[0].Sample)
	assert.Equal(t, int64(100), samples[0].Timestamp)
}

func TestRendererIgnoresNonFiniteHover(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		surface := &recordingSurface{}
		r := NewRenderer(surface)
		require.NoError(t, r.Resize(NewViewport(400, 300, 1)))

		hover := x
		state, err := r.Draw(fundingSeries(), Funding, &hover)
		require.NoError(t, err)
		assert.Nil(t, state)
		assert.Equal(t, 2, surface.count("polyline"))
		assert.Equal(t, 0, surface.count("circle"))
		assert.Equal(t, 0, surface.count("fillrect"))
	}
}

func TestRendererEmptyDataOnlyClears(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	require.NoError(t, r.Resize(NewViewport(400, 300, 1)))

	x := 100.0
	state, err := r.Draw([]Series{NewSeries("a", "", nil)}, Funding, &x)
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Equal(t, []string{"clear"}, surface.ops)
}

func TestRendererWithoutSurface(t *testing.T) {
	_, err := NewRenderer(nil).Draw(fundingSeries(), Funding, nil)
	assert.ErrorIs(t, err, ErrNoSurface)

	// surface present but never sized
	_, err = NewRenderer(&recordingSurface{}).Draw(fundingSeries(), Funding, nil)
	assert.ErrorIs(t, err, ErrNoSurface)
}

func TestRendererResizeIsStable(t *testing.T) {
	surface := &recordingSurface{}
	r := NewRenderer(surface)
	vp := NewViewport(640, 320, 2)
	series := fundingSeries()

	require.NoError(t, r.Resize(vp))
	_, err := r.Draw(series, Funding, nil)
	require.NoError(t, err)
	first := append([]string(nil), surface.ops...)

	require.NoError(t, r.Resize(vp))
	_, err = r.Draw(series, Funding, nil)
	require.NoError(t, err)

	assert.Equal(t, first, surface.ops)
	assert.Equal(t, 1280, surface.width)
	assert.Equal(t, 640, surface.height)
	assert.Equal(t, 2.0, surface.scale)
	assert.Equal(t, 2, surface.resets)
}

func TestRasterSurfaceResizeTracksDevicePixels(t *testing.T) {
	surface := NewRasterSurface()
	r := NewRenderer(surface, WithStyle(Style{Background: "#111827"}))

	for _, vp := range []Viewport{NewViewport(300.5, 200.7, 1.5), NewViewport(300.5, 200.7, 1.5), NewViewport(120, 90, 3)} {
		require.NoError(t, r.Resize(vp))
		x := 150.0
		_, err := r.Draw(fundingSeries(), Funding, &x)
		require.NoError(t, err)

		w, h := vp.PixelSize()
		bounds := surface.Image().Bounds()
		assert.Equal(t, w, bounds.Dx())
		assert.Equal(t, h, bounds.Dy())
		assert.Equal(t, vp.Ratio(), surface.Scale())
	}

	var buf bytes.Buffer
	require.NoError(t, surface.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 360, img.Bounds().Dx())
	assert.Equal(t, 270, img.Bounds().Dy())
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
		want    [4]uint8
	}{
		{in: "#fff", want: [4]uint8{255, 255, 255, 255}},
		{in: "#10b981", want: [4]uint8{0x10, 0xb9, 0x81, 255}},
		{in: "#10b98180", want: [4]uint8{0x10, 0xb9, 0x81, 0x80}},
		{in: "rgba(17,24,39,0.95)", want: [4]uint8{17, 24, 39, 242}},
		{in: "rgb(1, 2, 3)", want: [4]uint8{1, 2, 3, 255}},
		{in: "blue", wantErr: true},
		{in: "#12345", wantErr: true},
		{in: "rgba(1,2,3)", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, color.NRGBA{R: tt.want[0], G: tt.want[1], B: tt.want[2], A: tt.want[3]}, c)
		})
	}
}
