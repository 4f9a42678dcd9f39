package config

import (
	"fmt"
	"path/filepath"

	"perpdash-api/pkg/market"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on error.
// Tests that only need upstream providers use it instead of the full config.
func MustLoadMarket() *market.Config {
	return market.MustLoad()
}

// BuildMarketProviders instantiates the providers of the hydrated market
// section, falling back to etc/market.yaml when the section is unset.
func (c *Config) BuildMarketProviders() (map[string]market.Provider, string, error) {
	mc := c.Market.Value
	if mc == nil {
		loaded, err := market.LoadConfig(c.marketDefaultPath())
		if err != nil {
			return nil, "", fmt.Errorf("load market config: %w", err)
		}
		mc = loaded
	}
	providers, err := mc.BuildProviders()
	if err != nil {
		return nil, "", err
	}
	return providers, mc.Default, nil
}

func (c *Config) marketDefaultPath() string {
	if c.baseDir != "" {
		return filepath.Join(c.baseDir, "market.yaml")
	}
	return market.DefaultPath()
}
