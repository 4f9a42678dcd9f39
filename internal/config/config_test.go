package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "perpdash-api/pkg/market/exchanges/hyperliquid"
	_ "perpdash-api/pkg/market/exchanges/lighter"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// Test_hydrateSections_withEnvAndSectionFiles verifies env expansion and
// per-section hydration without going through go-zero conf.Load.
func Test_hydrateSections_withEnvAndSectionFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "market.yaml", `
default: hl
providers:
  hl:
    type: hyperliquid
    base_url: ${HLIQ_BASE}
    timeout: ${HLIQ_TIMEOUT}
  lt:
    type: lighter
    http_timeout: ${LIGHTER_HTTP_TIMEOUT}
    aliases:
      1000PEPE: kPEPE
`)
	writeFile(t, dir, "chart.yaml", `
width: 640
colors:
  lighter: "${LIGHTER_COLOR}"
`)
	t.Setenv("HLIQ_BASE", "https://api.hyperliquid.local/info")
	t.Setenv("HLIQ_TIMEOUT", "7s")
	t.Setenv("LIGHTER_HTTP_TIMEOUT", "11s")
	t.Setenv("LIGHTER_COLOR", "#123456")

	cfg := &Config{
		TTL:     CacheTTL{Short: 10, Medium: 60, Long: 300},
		baseDir: dir,
	}
	cfg.Market.File = "market.yaml"
	cfg.Chart.File = "chart.yaml"
	require.NoError(t, cfg.hydrateSections())
	require.NoError(t, cfg.Validate())

	require.True(t, cfg.Market.Loaded())
	hl := cfg.Market.Value.Providers["hl"]
	require.NotNil(t, hl)
	assert.Equal(t, "https://api.hyperliquid.local/info", hl.BaseURL)
	assert.Equal(t, "7s", hl.Timeout.String())
	lt := cfg.Market.Value.Providers["lt"]
	require.NotNil(t, lt)
	assert.Equal(t, "11s", lt.HTTPTimeout.String())
	assert.Equal(t, "kPEPE", lt.Aliases["1000PEPE"])

	chartCfg := cfg.ChartConfig()
	assert.Equal(t, 640.0, chartCfg.Width)
	assert.Equal(t, "#123456", chartCfg.ColorFor("lighter"))

	providers, def, err := cfg.BuildMarketProviders()
	require.NoError(t, err)
	assert.Equal(t, "hl", def)
	assert.Len(t, providers, 2)
}

func TestLoadMainConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "market.yaml", "providers:\n  hyperliquid:\n    type: hyperliquid\n")
	main := writeFile(t, dir, "perpdash.yaml", `
Name: perpdash-api
Host: 127.0.0.1
Port: 8899
Env: dev
Auth:
  AccessKey: ${PERPDASH_ACCESS_KEY}
  SecretKey: s3cret
Ingest:
  Cron: "@every 1m"
  Symbols: [BTC, ETH]
Market:
  File: market.yaml
`)
	t.Setenv("PERPDASH_ACCESS_KEY", "ak")

	cfg, err := Load(main)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "ak", cfg.Auth.AccessKey)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Ingest.Symbols)
	assert.Equal(t, 1440, cfg.Ingest.Minutes)
	assert.Equal(t, 10, cfg.TTL.Short)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.HasCache())
	assert.True(t, cfg.Market.Loaded())
	assert.False(t, cfg.Chart.Loaded())
	assert.Equal(t, 800.0, cfg.ChartConfig().Width)
	assert.Equal(t, dir, cfg.BaseDir())
	assert.Equal(t, main, cfg.MainPath())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{TTL: CacheTTL{Short: 10, Medium: 60, Long: 300}}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad env", mutate: func(c *Config) { c.Env = "staging" }, wantErr: "env must be one of"},
		{name: "ttl short", mutate: func(c *Config) { c.TTL.Short = 0 }, wantErr: "ttl.short"},
		{name: "ttl long", mutate: func(c *Config) { c.TTL.Long = -1 }, wantErr: "ttl.long"},
		{name: "half auth", mutate: func(c *Config) { c.Auth.AccessKey = "ak" }, wantErr: "set together"},
		{name: "bad cron", mutate: func(c *Config) { c.Ingest.Cron = "every minute" }, wantErr: "ingest.cron"},
		{name: "seconds cron", mutate: func(c *Config) { c.Ingest.Cron = "30 */5 * * * *" }},
		{name: "negative minutes", mutate: func(c *Config) { c.Ingest.Minutes = -5 }, wantErr: "ingest.minutes"},
		{name: "negative retention", mutate: func(c *Config) { c.Ingest.RetainDays = -1 }, wantErr: "ingest.retainDays"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "test", cfg.Env)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
