package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"perpdash-api/internal/config"
)

func TestFundingKeys(t *testing.T) {
	assert.Equal(t, "perpdash:funding:latest", FundingLatestBatchKey())
	assert.Equal(t, "perpdash:funding:markets", FundingMarketsKey())
	assert.Equal(t, "perpdash:funding:history:lighter:ETH:1440", FundingHistoryKey("Lighter", "eth", 1440))
	assert.Equal(t, "perpdash:funding:score:BTC:60", FundingScoreKey(" btc", 60))
	assert.Equal(t, "perpdash:a:b", formatKey("a", " ", "b"))
}

func TestTTLSet(t *testing.T) {
	ttl := NewTTLSet(config.CacheTTL{Short: 0, Medium: 30, Long: -1})
	assert.Equal(t, 10*time.Second, ttl.Short)
	assert.Equal(t, 30*time.Second, ttl.Medium)
	assert.Equal(t, time.Duration(0), ttl.Long)

	assert.Equal(t, 10*time.Second, FundingLatestTTL(ttl))
	assert.Equal(t, 30*time.Second, FundingHistoryTTL(ttl))
	assert.Equal(t, time.Minute, FundingScoreTTL(ttl))
	assert.Equal(t, time.Duration(0), FundingMarketsTTL(ttl))
	assert.Equal(t, time.Duration(0), ttl.Duration("weekly"))
}
