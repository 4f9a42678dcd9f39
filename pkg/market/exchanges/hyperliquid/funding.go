package hyperliquid

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// fundingHistoryPageSize is the most entries fundingHistory returns per call.
const fundingHistoryPageSize = 500

// MarketInfo aggregates the funding metrics returned by metaAndAssetCtxs.
type MarketInfo struct {
	Symbol       string  // Canonical Hyperliquid symbol
	MarkPrice    float64 // Mark price
	FundingRate  float64 // Hourly funding rate (decimal, not percentage)
	OpenInterest float64 // Open interest in USD notional
	IsDelisted   bool
	Meta         UniverseEntry
}

// GetMarketInfo retrieves funding and open interest for a single symbol.
func (c *Client) GetMarketInfo(ctx context.Context, symbol string) (*MarketInfo, error) {
	dir, err := c.refreshDirectory(ctx)
	if err != nil {
		return nil, err
	}
	asset, ok := dir.lookup(symbol)
	if !ok || !asset.hasCtx {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return buildMarketInfo(asset)
}

// GetFundingSnapshot refreshes the directory and returns the funding metrics
// of every listed asset in universe order. Assets with unparseable contexts
// are skipped.
func (c *Client) GetFundingSnapshot(ctx context.Context) ([]MarketInfo, error) {
	dir, err := c.refreshDirectory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MarketInfo, 0, len(dir.assets))
	for _, asset := range dir.assets {
		if !asset.hasCtx {
			continue
		}
		info, err := buildMarketInfo(asset)
		if err != nil {
			continue
		}
		out = append(out, *info)
	}
	return out, nil
}

// GetFundingHistory returns settled funding entries for symbol between start
// and end, paging until the window is exhausted.
func (c *Client) GetFundingHistory(ctx context.Context, symbol string, start, end time.Time) ([]FundingHistoryEntry, error) {
	canonical, err := c.canonicalSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = time.Now()
	}
	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	if startMs > endMs {
		return nil, fmt.Errorf("hyperliquid: start %d after end %d", startMs, endMs)
	}

	var out []FundingHistoryEntry
	for {
		var page []FundingHistoryEntry
		req := InfoRequest{Type: "fundingHistory", Coin: canonical, StartTime: startMs, EndTime: endMs}
		if err := c.post(ctx, req, &page); err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < fundingHistoryPageSize {
			break
		}
		next := page[len(page)-1].Time + 1
		if next <= startMs || next > endMs {
			break
		}
		startMs = next
	}
	return out, nil
}

func buildMarketInfo(asset listedAsset) (*MarketInfo, error) {
	canonical, ctxData := asset.Symbol, asset.Ctx
	funding, err := parseFloat(ctxData.Funding)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: parse funding: %w", err)
	}
	if math.IsNaN(funding) {
		return nil, fmt.Errorf("hyperliquid: missing funding for %s", canonical)
	}
	mark, err := parseFloat(ctxData.MarkPx)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: parse mark price: %w", err)
	}
	oi, err := parseFloat(ctxData.OpenInterest)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: parse open interest: %w", err)
	}
	notional := 0.0
	if !math.IsNaN(oi) && !math.IsNaN(mark) {
		notional = oi * mark
	}
	if math.IsNaN(mark) {
		mark = 0
	}
	return &MarketInfo{
		Symbol:       canonical,
		MarkPrice:    mark,
		FundingRate:  funding,
		OpenInterest: notional,
		IsDelisted:   asset.Meta.IsDelisted,
		Meta:         asset.Meta,
	}, nil
}

func parseFloat(val string) (float64, error) {
	if val == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(val, 64)
}
