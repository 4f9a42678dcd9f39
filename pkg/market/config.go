package market

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"perpdash-api/pkg/confkit"
)

// Config describes the funding-rate venues the dashboard reads from.
type Config struct {
	Default   string                     `yaml:"default"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures one venue. Type selects the registered builder.
type ProviderConfig struct {
	Type string `yaml:"type"`

	BaseURL string `yaml:"base_url"`
	// Mode "testnet" switches the venue to its testnet endpoint.
	Mode string `yaml:"mode"`

	TimeoutRaw     string        `yaml:"timeout"`
	Timeout        time.Duration `yaml:"-"`
	HTTPTimeoutRaw string        `yaml:"http_timeout"`
	HTTPTimeout    time.Duration `yaml:"-"`
	MaxRetries     int           `yaml:"max_retries"`

	// Aliases maps venue symbols to dashboard market names.
	Aliases map[string]string `yaml:"aliases"`
}

// ProviderBuilder constructs a Provider from configuration.
type ProviderBuilder func(name string, cfg *ProviderConfig) (Provider, error)

var registry = struct {
	sync.RWMutex
	builders map[string]ProviderBuilder
}{builders: make(map[string]ProviderBuilder)}

func registryKey(typeName string) string {
	return strings.ToLower(strings.TrimSpace(typeName))
}

// RegisterProvider registers a venue constructor. Exchange packages call it
// from init, so importing them for side effects makes their type available.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	registry.Lock()
	registry.builders[registryKey(typeName)] = builder
	registry.Unlock()
}

func builderFor(typeName string) (ProviderBuilder, bool) {
	registry.RLock()
	defer registry.RUnlock()
	b, ok := registry.builders[registryKey(typeName)]
	return b, ok
}

// LoadConfig reads configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// DefaultPath is etc/market.yaml under the project root.
func DefaultPath() string {
	return confkit.MustProjectPath("etc/market.yaml")
}

// MustLoad reads etc/market.yaml and panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(DefaultPath())
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader decodes YAML with ${VAR} expansion, parses
// durations and validates the result.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	confkit.LoadDotenvOnce()
	cfg, err := confkit.DecodeYAML[Config](r, "market")
	if err != nil {
		return nil, err
	}
	if err := cfg.prepare(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) prepare() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	c.Default = strings.TrimSpace(c.Default)
	for _, name := range c.Names() {
		p := c.Providers[name]
		if p == nil {
			p = &ProviderConfig{}
			c.Providers[name] = p
		}
		if err := p.prepare(); err != nil {
			return fmt.Errorf("market provider %s: %w", name, err)
		}
	}
	return nil
}

func (p *ProviderConfig) prepare() error {
	p.Type = strings.TrimSpace(p.Type)
	p.BaseURL = strings.TrimSpace(p.BaseURL)
	p.Mode = strings.TrimSpace(p.Mode)
	for venue, name := range p.Aliases {
		p.Aliases[venue] = strings.TrimSpace(name)
	}

	var err error
	if p.Timeout, err = positiveDuration("timeout", p.TimeoutRaw); err != nil {
		return err
	}
	if p.HTTPTimeout, err = positiveDuration("http_timeout", p.HTTPTimeoutRaw); err != nil {
		return err
	}
	return nil
}

// positiveDuration parses raw; empty yields zero, meaning the venue default.
func positiveDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, d)
	}
	return d, nil
}

// Names returns the configured provider names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("market config: providers cannot be empty")
	}
	if c.Default != "" {
		if _, ok := c.Providers[c.Default]; !ok {
			return fmt.Errorf("market config: default provider %q not defined", c.Default)
		}
	}
	for _, name := range c.Names() {
		if strings.TrimSpace(name) == "" {
			return errors.New("market config: provider name cannot be empty")
		}
		if err := c.Providers[name].validate(); err != nil {
			return fmt.Errorf("market config: provider %s %w", name, err)
		}
	}
	return nil
}

func (p *ProviderConfig) validate() error {
	switch {
	case p == nil:
		return errors.New("is nil")
	case p.Type == "":
		return errors.New("must specify type")
	case p.MaxRetries < 0:
		return errors.New("max_retries must not be negative")
	}
	if _, ok := builderFor(p.Type); !ok {
		return fmt.Errorf("has unsupported type %q", p.Type)
	}
	for venue, market := range p.Aliases {
		if strings.TrimSpace(venue) == "" || market == "" {
			return errors.New("has an empty alias")
		}
	}
	return nil
}

// BuildProviders instantiates every configured venue, wrapping each in its
// alias table.
func (c *Config) BuildProviders() (map[string]Provider, error) {
	result := make(map[string]Provider, len(c.Providers))
	for _, name := range c.Names() {
		pc := c.Providers[name]
		build, ok := builderFor(pc.Type)
		if !ok {
			return nil, fmt.Errorf("market provider %s: unsupported type %q", name, pc.Type)
		}
		provider, err := build(name, pc)
		if err != nil {
			return nil, fmt.Errorf("market provider %s: %w", name, err)
		}
		result[name] = WithAliases(provider, pc.Aliases)
	}
	return result, nil
}
