package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"perpdash-api/pkg/confkit"
)

// Config holds viewport defaults, request limits, palette and platform colors.
type Config struct {
	Width   float64           `yaml:"width"`
	Height  float64           `yaml:"height"`
	DPR     float64           `yaml:"dpr"`
	Padding *Padding          `yaml:"padding"`
	Limits  Limits            `yaml:"limits"`
	Style   Style             `yaml:"style"`
	Colors  map[string]string `yaml:"colors"`
}

// Limits bound viewport values accepted from callers.
type Limits struct {
	MaxWidth  float64 `yaml:"max_width"`
	MaxHeight float64 `yaml:"max_height"`
	MaxDPR    float64 `yaml:"max_dpr"`
}

// DefaultColors assigns the dashboard color to each supported platform.
var DefaultColors = map[string]string{
	"hyperliquid": "#10b981",
	"lighter":     "#3b82f6",
}

// DefaultConfig returns a 800x300 CSS pixel chart at DPR 1.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.normalise()
	return cfg
}

// LoadConfig reads chart configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chart config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	cfg, err := confkit.DecodeYAML[Config](r, "chart")
	if err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalise() {
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 300
	}
	if c.DPR <= 0 {
		c.DPR = 1
	}
	if c.Padding == nil {
		p := DefaultPadding
		c.Padding = &p
	}
	if c.Limits.MaxWidth <= 0 {
		c.Limits.MaxWidth = 4096
	}
	if c.Limits.MaxHeight <= 0 {
		c.Limits.MaxHeight = 2048
	}
	if c.Limits.MaxDPR <= 0 {
		c.Limits.MaxDPR = 4
	}
	c.Style = c.Style.merge(DefaultStyle())
	colors := make(map[string]string, len(DefaultColors)+len(c.Colors))
	for k, v := range DefaultColors {
		colors[k] = v
	}
	for k, v := range c.Colors {
		colors[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	c.Colors = colors
}

// Validate checks that every configured color parses.
func (c *Config) Validate() error {
	for name, value := range c.Colors {
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("chart config: color for %s: %w", name, err)
		}
	}
	for _, value := range []string{c.Style.Grid, c.Style.Label, c.Style.Crosshair, c.Style.TooltipFill, c.Style.TooltipBorder, c.Style.TooltipText, c.Style.SeriesDefault} {
		if _, err := ParseColor(value); err != nil {
			return fmt.Errorf("chart config: style: %w", err)
		}
	}
	if c.Style.Background != "" {
		if _, err := ParseColor(c.Style.Background); err != nil {
			return fmt.Errorf("chart config: style: %w", err)
		}
	}
	return nil
}

// Viewport builds a viewport from caller supplied values, falling back to
// the configured defaults for non-positive inputs and clamping to Limits.
func (c *Config) Viewport(width, height, dpr float64) Viewport {
	pick := func(v, def, max float64) float64 {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			v = def
		}
		return math.Min(v, max)
	}
	return Viewport{
		Width:            pick(width, c.Width, c.Limits.MaxWidth),
		Height:           pick(height, c.Height, c.Limits.MaxHeight),
		DevicePixelRatio: pick(dpr, c.DPR, c.Limits.MaxDPR),
		Padding:          *c.Padding,
	}
}

// ColorFor returns the configured color of a platform, or "" when unknown.
func (c *Config) ColorFor(platform string) string {
	return c.Colors[strings.ToLower(strings.TrimSpace(platform))]
}
