package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/config"
	"perpdash-api/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Listen: %s:%d", cfg.Host, cfg.Port),
		fmt.Sprintf("Postgres: %s", presence(cfg.HasDatabase())),
		fmt.Sprintf("Redis: %s", presence(cfg.HasCache())),
		fmt.Sprintf("TTL (short/medium/long): %ds / %ds / %ds", cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long),
		fmt.Sprintf("API keys: %s", presence(cfg.Auth.AccessKey != "")),
		fmt.Sprintf("Ingest: cron=%q symbols=%s window=%dm", cfg.Ingest.Cron, symbolsLine(cfg.Ingest.Symbols), cfg.Ingest.Minutes),
		fmt.Sprintf("Metrics: %s", metricsLine(cfg.Metrics)),
		sectionLine("Market config", cfg.Market),
		sectionLine("Chart config", cfg.Chart),
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func symbolsLine(symbols []string) string {
	if len(symbols) == 0 {
		return "all"
	}
	return strings.Join(symbols, ",")
}

func metricsLine(m config.MetricsConf) string {
	if !m.Enabled {
		return "disabled"
	}
	return m.Path
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: defaults", name)
	}
}
