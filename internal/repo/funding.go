package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"golang.org/x/sync/errgroup"

	cachekeys "perpdash-api/internal/cache"
	"perpdash-api/internal/metrics"
	"perpdash-api/internal/model"
	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
	"perpdash-api/pkg/market"
)

const (
	// DefaultMinutes is the history window used when callers pass none.
	DefaultMinutes = 1440
	// MaxMinutes caps history windows at 30 days.
	MaxMinutes = 30 * 1440

	openInterestField = "open_interest"
)

// ErrUnknownDex is returned for a venue that is neither configured nor known.
var ErrUnknownDex = errors.New("repo: unknown dex")

// FundingRepo serves funding rates, spreads and chart series. Reads are
// cache-aside; the database is preferred and the live providers are used
// when it is not configured or holds nothing for the request.
type FundingRepo interface {
	// LatestBatch returns the newest rate of every market on every venue.
	LatestBatch(ctx context.Context) ([]funding.RateRecord, error)
	// Markets lists markets quoted by both Hyperliquid and Lighter.
	Markets(ctx context.Context) ([]string, error)
	// MarketMinutes returns raw funding points of one venue over the last minutes.
	MarketMinutes(ctx context.Context, market, dex string, minutes int) ([]chart.RawPoint, error)
	// Diff compares the latest Hyperliquid and Lighter rates per market.
	Diff(ctx context.Context) ([]funding.DiffRow, error)
	// Score ranks the Hyperliquid-Lighter spread of market over the last minutes.
	Score(ctx context.Context, market string, minutes int) (funding.Score, error)
	// Series returns one normalized series per venue for a chart of type ct.
	Series(ctx context.Context, market string, ct chart.ChartType, minutes int) ([]chart.Series, error)
	// Venues lists the venue tags series are produced for, in display order.
	Venues() []string
}

type fundingRepo struct {
	rates     model.FundingRatesModel
	providers map[string]market.Provider // keyed by dex tag
	venues    []string
	cache     cache.Cache
	ttl       cachekeys.TTLSet
	now       func() time.Time
}

func newFundingRepo(deps Dependencies) FundingRepo {
	providers := byDex(deps.Providers)
	venues := make([]string, 0, len(providers))
	for dex := range providers {
		venues = append(venues, dex)
	}
	sort.Strings(venues)
	if len(venues) == 0 {
		venues = []string{funding.Hyperliquid, funding.Lighter}
	}
	return &fundingRepo{
		rates:     deps.FundingRatesModel,
		providers: providers,
		venues:    venues,
		cache:     deps.Cache,
		ttl:       deps.TTL,
		now:       deps.Now,
	}
}

// byDex re-keys configured providers by the venue tag their rates are stored
// under. When two providers serve one venue the first by config name wins.
func byDex(configured map[string]market.Provider) map[string]market.Provider {
	names := make([]string, 0, len(configured))
	for name, p := range configured {
		if p != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make(map[string]market.Provider, len(names))
	owner := make(map[string]string, len(names))
	for _, name := range names {
		dex := strings.ToLower(market.DexOf(name, configured[name]))
		if prev, ok := owner[dex]; ok {
			logx.Errorf("repo: providers %s and %s both serve dex=%s, using %s", prev, name, dex, prev)
			continue
		}
		owner[dex] = name
		out[dex] = configured[name]
	}
	return out
}

// NormalizeMinutes applies the default and the upper bound to a history window.
func NormalizeMinutes(minutes int) int {
	switch {
	case minutes <= 0:
		return DefaultMinutes
	case minutes > MaxMinutes:
		return MaxMinutes
	default:
		return minutes
	}
}

func (r *fundingRepo) Venues() []string {
	out := make([]string, len(r.venues))
	copy(out, r.venues)
	return out
}

func (r *fundingRepo) getCache(ctx context.Context, key string, v any) bool {
	if r.cache == nil {
		return false
	}
	if err := r.cache.GetCtx(ctx, key, v); err != nil {
		if !r.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("repo: get cache key=%s err=%v", key, err)
		}
		metrics.ObserveCache(false)
		return false
	}
	metrics.ObserveCache(true)
	return true
}

func (r *fundingRepo) setCache(ctx context.Context, key string, ttl time.Duration, v any) {
	if r.cache == nil || ttl <= 0 {
		return
	}
	if err := r.cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("repo: set cache key=%s err=%v", key, err)
	}
}

// ================= Latest rates =================

func (r *fundingRepo) LatestBatch(ctx context.Context) ([]funding.RateRecord, error) {
	key := cachekeys.FundingLatestBatchKey()
	var cached []funding.RateRecord
	if r.getCache(ctx, key, &cached) {
		return cached, nil
	}

	var batch []funding.RateRecord
	if r.rates != nil {
		rows, err := r.rates.LatestBatch(ctx)
		if err != nil {
			return nil, fmt.Errorf("repo: latest batch query: %w", err)
		}
		batch = recordsFromRows(rows)
	}
	if len(batch) == 0 {
		live, err := r.latestFromProviders(ctx)
		if err != nil {
			return nil, err
		}
		batch = live
	}
	r.setCache(ctx, key, cachekeys.FundingLatestTTL(r.ttl), batch)
	return batch, nil
}

func (r *fundingRepo) latestFromProviders(ctx context.Context) ([]funding.RateRecord, error) {
	results := make([][]funding.RateRecord, len(r.venues))
	errs := make([]error, len(r.venues))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range r.venues {
		p, ok := r.providers[name]
		if !ok || p == nil {
			errs[i] = fmt.Errorf("%w: %s", ErrUnknownDex, name)
			continue
		}
		i, name, p := i, name, p
		g.Go(func() error {
			start := time.Now()
			rates, err := p.LatestRates(gctx)
			metrics.ObserveUpstream(name, "latest_rates", start, err)
			if err != nil {
				logx.WithContext(gctx).Errorf("repo: latest rates provider=%s err=%v", name, err)
				errs[i] = fmt.Errorf("%s: %w", name, err)
				return nil
			}
			results[i] = rates
			return nil
		})
	}
	_ = g.Wait()

	var batch []funding.RateRecord
	failed := 0
	for i := range r.venues {
		if errs[i] != nil {
			failed++
			continue
		}
		batch = append(batch, results[i]...)
	}
	if failed == len(r.venues) {
		return nil, fmt.Errorf("repo: latest rates: %w", errors.Join(errs...))
	}
	return batch, nil
}

func recordsFromRows(rows []*model.FundingRates) []funding.RateRecord {
	out := make([]funding.RateRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, funding.RateRecord{
			Market:         row.Market,
			Dex:            row.Dex,
			Rate:           row.Rate,
			AnnualizedRate: row.AnnualizedRate,
			OpenInterest:   row.OpenInterest.Float64,
			Timestamp:      row.TsMs,
		})
	}
	return out
}

// ================= Markets & diff =================

func (r *fundingRepo) Markets(ctx context.Context) ([]string, error) {
	key := cachekeys.FundingMarketsKey()
	var cached []string
	if r.getCache(ctx, key, &cached) {
		return cached, nil
	}

	var markets []string
	if r.rates != nil {
		rows, err := r.rates.Markets(ctx)
		if err != nil {
			return nil, fmt.Errorf("repo: markets query: %w", err)
		}
		markets = rows
	}
	if len(markets) == 0 {
		batch, err := r.LatestBatch(ctx)
		if err != nil {
			return nil, err
		}
		markets = funding.CommonMarkets(batch, funding.Hyperliquid, funding.Lighter)
	}
	r.setCache(ctx, key, cachekeys.FundingMarketsTTL(r.ttl), markets)
	return markets, nil
}

func (r *fundingRepo) Diff(ctx context.Context) ([]funding.DiffRow, error) {
	batch, err := r.LatestBatch(ctx)
	if err != nil {
		return nil, err
	}
	return funding.DiffDefault(batch), nil
}

// ================= History =================

func (r *fundingRepo) knownDex(dex string) bool {
	if _, ok := r.providers[dex]; ok {
		return true
	}
	for _, v := range r.venues {
		if v == dex {
			return true
		}
	}
	return false
}

func (r *fundingRepo) MarketMinutes(ctx context.Context, marketName, dex string, minutes int) ([]chart.RawPoint, error) {
	marketName = strings.TrimSpace(marketName)
	dex = strings.ToLower(strings.TrimSpace(dex))
	if !r.knownDex(dex) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDex, dex)
	}
	minutes = NormalizeMinutes(minutes)

	key := cachekeys.FundingHistoryKey(dex, marketName, minutes)
	var cached []chart.RawPoint
	if r.getCache(ctx, key, &cached) {
		return cached, nil
	}

	end := r.now()
	start := end.Add(-time.Duration(minutes) * time.Minute)
	var points []chart.RawPoint
	if r.rates != nil {
		rows, err := r.rates.MarketSince(ctx, marketName, dex, start.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("repo: market minutes query market=%s dex=%s: %w", marketName, dex, err)
		}
		points = pointsFromRows(rows)
	}
	if len(points) == 0 {
		if p, ok := r.providers[dex]; ok && p != nil {
			began := time.Now()
			live, err := p.FundingHistory(ctx, marketName, start, end)
			metrics.ObserveUpstream(dex, "funding_history", began, err)
			if err != nil {
				return nil, fmt.Errorf("repo: funding history market=%s dex=%s: %w", marketName, dex, err)
			}
			points = live
		}
	}
	if points == nil {
		points = []chart.RawPoint{}
	}
	r.setCache(ctx, key, cachekeys.FundingHistoryTTL(r.ttl), points)
	return points, nil
}

func pointsFromRows(rows []*model.FundingRates) []chart.RawPoint {
	out := make([]chart.RawPoint, 0, len(rows))
	for _, row := range rows {
		p := market.HistoryPoint(row.TsMs, row.Rate)
		p["annualized_rate"] = row.AnnualizedRate
		if row.OpenInterest.Valid {
			p[openInterestField] = row.OpenInterest.Float64
		}
		out = append(out, p)
	}
	return out
}

// ================= Chart series =================

func (r *fundingRepo) Series(ctx context.Context, marketName string, ct chart.ChartType, minutes int) ([]chart.Series, error) {
	out := make([]chart.Series, len(r.venues))
	errs := make([]error, len(r.venues))
	g, gctx := errgroup.WithContext(ctx)
	for i, dex := range r.venues {
		i, dex := i, dex
		g.Go(func() error {
			points, err := r.MarketMinutes(gctx, marketName, dex, minutes)
			if err != nil {
				logx.WithContext(gctx).Errorf("repo: series market=%s dex=%s err=%v", marketName, dex, err)
				errs[i] = err
				out[i] = chart.NewSeries(dex, "", nil)
				return nil
			}
			if ct == chart.OpenInterest {
				points, err = r.openInterestPoints(gctx, marketName, dex, points)
				if err != nil {
					logx.WithContext(gctx).Errorf("repo: open interest market=%s dex=%s err=%v", marketName, dex, err)
				}
			}
			out[i] = chart.NormalizeSeries(chart.RawSeries{Name: dex, Points: points})
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(r.venues) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// openInterestPoints extracts open interest from history points. Venues whose
// history carries none fall back to the open interest of the latest batch.
func (r *fundingRepo) openInterestPoints(ctx context.Context, marketName, dex string, history []chart.RawPoint) ([]chart.RawPoint, error) {
	out := make([]chart.RawPoint, 0, len(history))
	for _, p := range history {
		oi, ok := p[openInterestField]
		if !ok || oi == nil {
			continue
		}
		out = append(out, chart.RawPoint{chart.TimestampField: p[chart.TimestampField], "value": oi})
	}
	if len(out) > 0 {
		return out, nil
	}
	batch, err := r.LatestBatch(ctx)
	if err != nil {
		return out, err
	}
	for _, rec := range batch {
		if rec.Dex == dex && strings.EqualFold(rec.Market, marketName) && rec.OpenInterest > 0 {
			out = append(out, chart.RawPoint{chart.TimestampField: rec.Timestamp, "value": rec.OpenInterest})
		}
	}
	return out, nil
}

// ================= Score =================

func (r *fundingRepo) Score(ctx context.Context, marketName string, minutes int) (funding.Score, error) {
	marketName = strings.TrimSpace(marketName)
	minutes = NormalizeMinutes(minutes)
	key := cachekeys.FundingScoreKey(marketName, minutes)
	var cached funding.Score
	if r.getCache(ctx, key, &cached) {
		return cached, nil
	}

	var a, b chart.Series
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		points, err := r.MarketMinutes(gctx, marketName, funding.Hyperliquid, minutes)
		a = chart.NormalizeSeries(chart.RawSeries{Name: funding.Hyperliquid, Points: points})
		return err
	})
	g.Go(func() error {
		points, err := r.MarketMinutes(gctx, marketName, funding.Lighter, minutes)
		b = chart.NormalizeSeries(chart.RawSeries{Name: funding.Lighter, Points: points})
		return err
	})
	if err := g.Wait(); err != nil {
		return funding.Score{Market: marketName}, err
	}

	expected := minutes / 60
	if expected < 1 {
		expected = 1
	}
	score, err := funding.ScoreMarket(marketName, a, b, funding.ScoreOptions{ExpectedPoints: expected})
	if err != nil {
		return score, fmt.Errorf("repo: score market=%s: %w", marketName, err)
	}
	r.setCache(ctx, key, cachekeys.FundingScoreTTL(r.ttl), score)
	return score, nil
}
