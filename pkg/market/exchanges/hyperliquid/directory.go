package hyperliquid

import "strings"

// listedAsset pairs a universe entry with its asset context.
type listedAsset struct {
	Symbol string
	Meta   UniverseEntry
	Ctx    AssetCtx
	hasCtx bool
}

// directory is an immutable snapshot of metaAndAssetCtxs. It is replaced
// wholesale on refresh and never mutated.
type directory struct {
	assets []listedAsset   // universe order
	index  map[string]int // directoryKey -> assets index
}

func newDirectory(payload MetaAndAssetCtxsResponse) *directory {
	dir := &directory{
		assets: make([]listedAsset, 0, len(payload.Universe)),
		index:  make(map[string]int, len(payload.Universe)),
	}
	for i, entry := range payload.Universe {
		symbol := strings.TrimSpace(entry.Name)
		key := directoryKey(symbol)
		if key == "" {
			continue
		}
		asset := listedAsset{Symbol: symbol, Meta: entry}
		// Asset contexts are positional: the i-th context belongs to the i-th universe entry.
		if i < len(payload.AssetCtxs) {
			asset.Ctx, asset.hasCtx = payload.AssetCtxs[i], true
		}
		dir.index[key] = len(dir.assets)
		dir.assets = append(dir.assets, asset)
	}
	return dir
}

func (d *directory) lookup(symbol string) (listedAsset, bool) {
	i, ok := d.index[directoryKey(symbol)]
	if !ok {
		return listedAsset{}, false
	}
	return d.assets[i], true
}

// directoryKey upper-cases symbol and strips a USDT quote suffix, so
// "btcusdt" and "BTC" resolve to the same asset.
func directoryKey(symbol string) string {
	trimmed := strings.TrimSpace(symbol)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) > 4 && strings.EqualFold(trimmed[len(trimmed)-4:], "USDT") {
		trimmed = trimmed[:len(trimmed)-4]
	}
	return strings.ToUpper(trimmed)
}
