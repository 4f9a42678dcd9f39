package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrNoSurface is returned when drawing is attempted without a sized surface.
var ErrNoSurface = errors.New("chart: drawing surface unavailable")

// Align positions text horizontally relative to its anchor.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Baseline positions text vertically relative to its anchor.
type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineTop
	BaselineMiddle
)

// Point is a CSS pixel coordinate.
type Point struct {
	X, Y float64
}

// Surface is the 2D drawing target used by Renderer. Coordinates are CSS
// pixels; implementations scale to device pixels internally.
type Surface interface {
	// Reset reallocates the backing store at the given device pixel size and
	// resets the transform so one CSS pixel spans scale device pixels.
	Reset(pixelWidth, pixelHeight int, scale float64) error
	Ready() bool
	Clear(background string)
	SetColor(c string)
	SetLineWidth(w float64)
	SetFontSize(px float64)
	MeasureString(s string) float64
	Line(a, b Point)
	Polyline(points []Point)
	FillCircle(center Point, radius float64)
	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h float64)
	Text(s string, at Point, align Align, baseline Baseline)
}

var (
	fontOnce sync.Once
	fontData *truetype.Font
	fontErr  error
)

func defaultFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		fontData, fontErr = truetype.Parse(goregular.TTF)
	})
	return fontData, fontErr
}

// RasterSurface is a Surface backed by an in-memory RGBA image.
type RasterSurface struct {
	dc    *gg.Context
	scale float64
	faces map[float64]font.Face
	color color.Color
}

// NewRasterSurface returns an unsized surface; call Reset before drawing.
func NewRasterSurface() *RasterSurface {
	return &RasterSurface{faces: make(map[float64]font.Face), color: color.White, scale: 1}
}

func (s *RasterSurface) Reset(pixelWidth, pixelHeight int, scale float64) error {
	if pixelWidth < 1 || pixelHeight < 1 {
		return fmt.Errorf("chart: invalid surface size %dx%d", pixelWidth, pixelHeight)
	}
	if scale <= 0 {
		scale = 1
	}
	s.dc = gg.NewContext(pixelWidth, pixelHeight)
	s.dc.Identity()
	s.dc.Scale(scale, scale)
	s.scale = scale
	return nil
}

func (s *RasterSurface) Ready() bool {
	return s != nil && s.dc != nil
}

// Scale reports the current CSS to device pixel factor.
func (s *RasterSurface) Scale() float64 {
	return s.scale
}

func (s *RasterSurface) Clear(background string) {
	if !s.Ready() {
		return
	}
	c, err := ParseColor(background)
	if err != nil || strings.TrimSpace(background) == "" {
		c = color.Transparent
	}
	s.dc.SetColor(c)
	s.dc.Clear()
	s.dc.SetColor(s.color)
}

func (s *RasterSurface) SetColor(value string) {
	c, err := ParseColor(value)
	if err != nil {
		c = color.White
	}
	s.color = c
	if s.Ready() {
		s.dc.SetColor(c)
	}
}

// SetLineWidth takes a CSS pixel width. Strokes are not scaled by the
// transform, so the width is converted to device pixels here.
func (s *RasterSurface) SetLineWidth(w float64) {
	if s.Ready() {
		s.dc.SetLineWidth(w * s.scale)
	}
}

func (s *RasterSurface) SetFontSize(px float64) {
	if !s.Ready() {
		return
	}
	face, ok := s.faces[px]
	if !ok {
		f, err := defaultFont()
		if err != nil {
			return
		}
		face = truetype.NewFace(f, &truetype.Options{Size: px, DPI: 72, Hinting: font.HintingNone})
		s.faces[px] = face
	}
	s.dc.SetFontFace(face)
}

func (s *RasterSurface) MeasureString(text string) float64 {
	if !s.Ready() {
		return 0
	}
	w, _ := s.dc.MeasureString(text)
	return w
}

func (s *RasterSurface) Line(a, b Point) {
	if !s.Ready() {
		return
	}
	s.dc.DrawLine(a.X, a.Y, b.X, b.Y)
	s.dc.Stroke()
}

func (s *RasterSurface) Polyline(points []Point) {
	if !s.Ready() || len(points) == 0 {
		return
	}
	s.dc.NewSubPath()
	s.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	s.dc.Stroke()
}

func (s *RasterSurface) FillCircle(center Point, radius float64) {
	if !s.Ready() {
		return
	}
	s.dc.DrawCircle(center.X, center.Y, radius)
	s.dc.Fill()
}

func (s *RasterSurface) FillRect(x, y, w, h float64) {
	if !s.Ready() {
		return
	}
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *RasterSurface) StrokeRect(x, y, w, h float64) {
	if !s.Ready() {
		return
	}
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Stroke()
}

func (s *RasterSurface) Text(text string, at Point, align Align, baseline Baseline) {
	if !s.Ready() {
		return
	}
	ax := 0.0
	switch align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	ay := 0.0
	switch baseline {
	case BaselineTop:
		ay = 1
	case BaselineMiddle:
		ay = 0.5
	}
	s.dc.DrawStringAnchored(text, at.X, at.Y, ax, ay)
}

// Image returns the backing image, or nil before the first Reset.
func (s *RasterSurface) Image() image.Image {
	if !s.Ready() {
		return nil
	}
	return s.dc.Image()
}

// EncodePNG writes the current frame as PNG.
func (s *RasterSurface) EncodePNG(w io.Writer) error {
	if !s.Ready() {
		return ErrNoSurface
	}
	return png.Encode(w, s.dc.Image())
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa and rgba(r,g,b,a) notations.
func ParseColor(value string) (color.Color, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	switch {
	case strings.HasPrefix(v, "#"):
		return parseHexColor(v[1:])
	case strings.HasPrefix(v, "rgba(") && strings.HasSuffix(v, ")"):
		return parseRGBA(strings.TrimSuffix(strings.TrimPrefix(v, "rgba("), ")"), true)
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		return parseRGBA(strings.TrimSuffix(strings.TrimPrefix(v, "rgb("), ")"), false)
	default:
		return nil, fmt.Errorf("chart: unsupported color %q", value)
	}
}

func parseHexColor(hex string) (color.Color, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("chart: invalid hex color %q", hex)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("chart: invalid hex color %q: %w", hex, err)
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

func parseRGBA(body string, withAlpha bool) (color.Color, error) {
	parts := strings.Split(body, ",")
	want := 3
	if withAlpha {
		want = 4
	}
	if len(parts) != want {
		return nil, fmt.Errorf("chart: invalid rgb color %q", body)
	}
	var channels [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("chart: invalid rgb channel %q", parts[i])
		}
		channels[i] = uint8(n)
	}
	alpha := uint8(255)
	if withAlpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return nil, fmt.Errorf("chart: invalid alpha %q", parts[3])
		}
		alpha = uint8(a*255 + 0.5)
	}
	return color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: alpha}, nil
}
