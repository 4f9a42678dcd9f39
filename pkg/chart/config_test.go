package chart_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpdash-api/pkg/chart"
)

func TestLoadChartConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHART_BG", "#000000")
	configYAML := `
width: 1000
height: 400
dpr: 2
limits:
  max_dpr: 3
style:
  background: "${CHART_BG}"
  label_size: 13
colors:
  Lighter: "#ff0000"
  drift: "#00ff00"
`
	path := filepath.Join(dir, "chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := chart.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "#000000", cfg.Style.Background)
	assert.Equal(t, 13.0, cfg.Style.LabelSize)
	assert.Equal(t, "#374151", cfg.Style.Grid)
	assert.Equal(t, "#ff0000", cfg.ColorFor("lighter"))
	assert.Equal(t, "#10b981", cfg.ColorFor("Hyperliquid"))
	assert.Equal(t, "#00ff00", cfg.ColorFor("drift"))
	assert.Equal(t, "", cfg.ColorFor("unknown"))

	vp := cfg.Viewport(0, 250, 9)
	assert.Equal(t, 1000.0, vp.Width)
	assert.Equal(t, 250.0, vp.Height)
	assert.Equal(t, 3.0, vp.DevicePixelRatio)
	assert.Equal(t, chart.DefaultPadding, vp.Padding)
}

func TestChartConfigRejectsBadColor(t *testing.T) {
	_, err := chart.LoadConfigFromReader(strings.NewReader("colors:\n  lighter: chartreuse\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lighter")
}

func TestDefaultChartConfig(t *testing.T) {
	cfg := chart.DefaultConfig()
	vp := cfg.Viewport(-1, 0, 0)
	assert.Equal(t, 800.0, vp.Width)
	assert.Equal(t, 300.0, vp.Height)
	assert.Equal(t, 1.0, vp.DevicePixelRatio)
}
