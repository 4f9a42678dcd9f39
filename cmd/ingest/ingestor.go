package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/metrics"
	"perpdash-api/pkg/funding"
	marketpkg "perpdash-api/pkg/market"
)

const defaultRatesTimeout = 20 * time.Second

type rateRecorder interface {
	RecordRates(ctx context.Context, provider string, rates []funding.RateRecord) error
}

type ratePruner interface {
	DeleteBefore(ctx context.Context, beforeMs int64) (int64, error)
}

// rateIngestor mirrors the latest funding rates of every provider into the
// recorder. One run fetches each provider once; a provider failure does not
// stop the others.
type rateIngestor struct {
	providers    map[string]marketpkg.Provider
	orderedNames []string
	symbols      map[string]struct{}
	recorder     rateRecorder
	pruner       ratePruner
	retain       time.Duration
	timeout      time.Duration
	now          func() time.Time
}

func newRateIngestor(providers map[string]marketpkg.Provider, symbols []string, recorder rateRecorder, pruner ratePruner, retain time.Duration) *rateIngestor {
	ordered := make([]string, 0, len(providers))
	for name, p := range providers {
		if p == nil {
			continue
		}
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	var allowed map[string]struct{}
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if allowed == nil {
			allowed = make(map[string]struct{}, len(symbols))
		}
		allowed[sym] = struct{}{}
	}
	if retain < 0 {
		retain = 0
	}
	return &rateIngestor{
		providers:    providers,
		orderedNames: ordered,
		symbols:      allowed,
		recorder:     recorder,
		pruner:       pruner,
		retain:       retain,
		timeout:      defaultRatesTimeout,
		now:          time.Now,
	}
}

// run executes one ingest pass and reports it to the ingest metrics.
func (g *rateIngestor) run(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	start := g.now()
	var errs []error
	recorded := 0
	for _, name := range g.orderedNames {
		n, err := g.ingestProvider(ctx, name)
		if err != nil {
			logx.WithContext(ctx).Errorf("ingest: provider=%s err=%v", name, err)
			errs = append(errs, err)
			continue
		}
		recorded += n
	}
	if len(errs) == len(g.orderedNames) && len(errs) > 0 {
		err := errors.Join(errs...)
		metrics.ObserveIngest(g.now(), err)
		return err
	}
	if err := g.prune(ctx); err != nil {
		logx.WithContext(ctx).Errorf("ingest: prune err=%v", err)
	}
	metrics.ObserveIngest(g.now(), nil)
	logx.WithContext(ctx).Infof("ingest: recorded=%d providers=%d failed=%d took=%s",
		recorded, len(g.orderedNames), len(errs), g.now().Sub(start))
	return nil
}

func (g *rateIngestor) ingestProvider(parent context.Context, name string) (int, error) {
	ctx, cancel := context.WithTimeout(parent, g.timeout)
	defer cancel()

	start := time.Now()
	rates, err := g.providers[name].LatestRates(ctx)
	metrics.ObserveUpstream(name, "latest_rates", start, err)
	if err != nil {
		return 0, fmt.Errorf("%s latest rates: %w", name, err)
	}
	rates = g.filter(rates)
	if len(rates) == 0 {
		return 0, nil
	}
	if err := g.recorder.RecordRates(ctx, name, rates); err != nil {
		return 0, err
	}
	return len(rates), nil
}

func (g *rateIngestor) filter(rates []funding.RateRecord) []funding.RateRecord {
	if g.symbols == nil {
		return rates
	}
	out := make([]funding.RateRecord, 0, len(rates))
	for _, r := range rates {
		if _, ok := g.symbols[strings.ToUpper(r.Market)]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (g *rateIngestor) prune(ctx context.Context) error {
	if g.pruner == nil || g.retain <= 0 {
		return nil
	}
	cutoff := g.now().Add(-g.retain).UnixMilli()
	deleted, err := g.pruner.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logx.WithContext(ctx).Infof("ingest: pruned %d rates before %d", deleted, cutoff)
	}
	return nil
}
