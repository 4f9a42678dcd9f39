package cache

import (
	"strconv"
	"strings"
	"time"

	"perpdash-api/internal/config"
)

// Namespace is the Redis key prefix for the dashboard.
const Namespace = "perpdash"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// Scaled applies a multiplier to a TTL class.
func (t TTLSet) Scaled(class TTLClass, factor float64) time.Duration {
	base := t.Duration(class)
	if base <= 0 || factor <= 0 {
		return base
	}
	return time.Duration(float64(base) * factor)
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Funding Keys -----------------------------------------------------------

// FundingLatestBatchKey caches the merged latest-rate batch of every venue.
func FundingLatestBatchKey() string {
	return formatKey("funding", "latest")
}

// FundingMarketsKey caches the markets quoted by both venues.
func FundingMarketsKey() string {
	return formatKey("funding", "markets")
}

// FundingHistoryKey caches one venue's annualized history for a market window.
// Markets are upper-cased so lookups are case-insensitive.
func FundingHistoryKey(dex, market string, minutes int) string {
	return formatKey("funding", "history", strings.ToLower(dex), strings.ToUpper(market), strconv.Itoa(minutes))
}

// FundingScoreKey caches a market score for a history window.
func FundingScoreKey(market string, minutes int) string {
	return formatKey("funding", "score", strings.ToUpper(market), strconv.Itoa(minutes))
}

// --- TTL Helpers ------------------------------------------------------------

// FundingLatestTTL is short: latest rates move with every ingest.
func FundingLatestTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// FundingMarketsTTL returns the TTL for the common market listing.
func FundingMarketsTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLLong)
}

// FundingHistoryTTL returns the TTL for history windows.
func FundingHistoryTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// FundingScoreTTL returns the TTL for market scores.
func FundingScoreTTL(ttl TTLSet) time.Duration {
	return ttl.Scaled(TTLMedium, 2) // ~120s when medium=60s
}
