package fundingpersist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"

	cachekeys "perpdash-api/internal/cache"
	"perpdash-api/internal/metrics"
	"perpdash-api/internal/model"
	"perpdash-api/pkg/funding"
	"perpdash-api/pkg/market"
)

var _ market.Persistence = (*Service)(nil)

// Service persists funding rates to Postgres and invalidates cached reads.
type Service struct {
	ratesModel model.FundingRatesModel
	cache      gocache.Cache
}

// Config enumerates dependencies required to persist funding data.
type Config struct {
	RatesModel model.FundingRatesModel
	Cache      gocache.Cache
}

// NewService wires a funding persistence service. Returns nil when the model is missing.
func NewService(cfg Config) *Service {
	if cfg.RatesModel == nil {
		return nil
	}
	return &Service{
		ratesModel: cfg.RatesModel,
		cache:      cfg.Cache,
	}
}

// RecordRates inserts every rate once per (dex, market, timestamp). Rows that
// already exist are skipped. Records without a dex are tagged with provider.
func (s *Service) RecordRates(ctx context.Context, provider string, rates []funding.RateRecord) error {
	if s == nil || s.ratesModel == nil || len(rates) == 0 {
		return nil
	}
	inserted := make(map[string]int)
	for _, rec := range rates {
		if strings.TrimSpace(rec.Market) == "" || rec.Timestamp <= 0 {
			continue
		}
		dex := rec.Dex
		if dex == "" {
			dex = provider
		}
		row := &model.FundingRates{
			Dex:            dex,
			Market:         rec.Market,
			Rate:           rec.Rate,
			AnnualizedRate: rec.AnnualizedRate,
			TsMs:           rec.Timestamp,
		}
		if rec.OpenInterest > 0 {
			row.OpenInterest = sql.NullFloat64{Float64: rec.OpenInterest, Valid: true}
		}
		if _, err := s.ratesModel.Insert(ctx, row); err != nil {
			if errors.Is(err, model.ErrDuplicate) {
				continue
			}
			s.settle(ctx, inserted)
			return fmt.Errorf("fundingpersist: insert dex=%s market=%s ts=%d: %w", dex, rec.Market, rec.Timestamp, err)
		}
		inserted[dex]++
	}
	s.settle(ctx, inserted)
	return nil
}

// settle reports inserted rows and drops cached reads they made stale.
func (s *Service) settle(ctx context.Context, inserted map[string]int) {
	s.observe(inserted)
	if len(inserted) > 0 {
		s.invalidate(ctx)
	}
}

func (s *Service) observe(inserted map[string]int) {
	for dex, n := range inserted {
		metrics.PersistedRates.WithLabelValues(dex).Add(float64(n))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{cachekeys.FundingLatestBatchKey(), cachekeys.FundingMarketsKey()}
	if err := s.cache.DelCtx(ctx, keys...); err != nil {
		logx.WithContext(ctx).Errorf("fundingpersist: invalidate keys=%v err=%v", keys, err)
	}
}
