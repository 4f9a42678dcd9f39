package svc

import (
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"
	"github.com/zeromicro/go-zero/rest"

	cachekeys "perpdash-api/internal/cache"
	"perpdash-api/internal/config"
	"perpdash-api/internal/middleware"
	"perpdash-api/internal/model"
	fundingpersist "perpdash-api/internal/persistence/funding"
	"perpdash-api/internal/repo"
	chartpkg "perpdash-api/pkg/chart"
	marketpkg "perpdash-api/pkg/market"
	_ "perpdash-api/pkg/market/exchanges/hyperliquid"
	_ "perpdash-api/pkg/market/exchanges/lighter"
)

type ServiceContext struct {
	Config config.Config

	ChartConfig     *chartpkg.Config
	MarketProviders map[string]marketpkg.Provider
	DefaultMarket   marketpkg.Provider

	// Optional DB model; nil when no DSN is configured.
	DBConn            sqlx.SqlConn
	FundingRatesModel model.FundingRatesModel
	Persistence       *fundingpersist.Service

	Cache gocache.Cache
	TTL   cachekeys.TTLSet
	Repo  *repo.Set

	Auth rest.Middleware
}

// NewServiceContext wires every dependency and exits the process on failure.
func NewServiceContext(c config.Config, mainConfigPath string) *ServiceContext {
	svc, err := New(c)
	if err != nil {
		log.Fatalf("failed to init service context (%s): %v", mainConfigPath, err)
	}
	return svc
}

// New wires the service context from c.
func New(c config.Config) (*ServiceContext, error) {
	svc := &ServiceContext{
		Config:      c,
		ChartConfig: c.ChartConfig(),
		TTL:         cachekeys.NewTTLSet(c.TTL),
		Auth:        middleware.NewAuthMiddleware(c.Auth).Handle,
	}

	providers, defaultName, err := c.BuildMarketProviders()
	if err != nil {
		return nil, fmt.Errorf("build market providers: %w", err)
	}
	svc.MarketProviders = providers
	if defaultName != "" {
		svc.DefaultMarket = providers[defaultName]
	}

	if c.HasCache() {
		svc.Cache = gocache.New(gocache.CacheConf{{RedisConf: c.Redis, Weight: 100}},
			syncx.NewSingleFlight(), gocache.NewStat("perpdash"), model.ErrNotFound)
	} else {
		local, err := cachekeys.NewLocal("perpdash", svc.TTL.Duration(cachekeys.TTLMedium), model.ErrNotFound)
		if err != nil {
			return nil, fmt.Errorf("init local cache: %w", err)
		}
		svc.Cache = local
	}

	// Only inject DB models when DSN provided; reads otherwise go to the providers.
	if c.HasDatabase() {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if db, err := conn.RawDB(); err == nil {
			db.SetMaxOpenConns(c.Postgres.MaxOpen)
			db.SetMaxIdleConns(c.Postgres.MaxIdle)
			db.SetConnMaxLifetime(time.Hour)
		} else {
			logx.Errorf("svc: raw db handle err=%v", err)
		}
		svc.DBConn = conn
		svc.FundingRatesModel = model.NewFundingRatesModel(conn)
		svc.Persistence = fundingpersist.NewService(fundingpersist.Config{
			RatesModel: svc.FundingRatesModel,
			Cache:      svc.Cache,
		})
		for name, p := range providers {
			if !marketpkg.AttachPersistence(p, svc.Persistence) {
				logx.Infof("svc: market provider %s does not accept persistence hooks", name)
			}
		}
	}

	set, err := repo.New(repo.Dependencies{
		Cache:             svc.Cache,
		TTL:               svc.TTL,
		FundingRatesModel: svc.FundingRatesModel,
		Providers:         providers,
	})
	if err != nil {
		return nil, err
	}
	svc.Repo = set
	return svc, nil
}

// WindowMinutes resolves a requested history window: zero means the
// configured ingest window, and the result is bounded by repo.MaxMinutes.
func (s *ServiceContext) WindowMinutes(requested int) int {
	if requested <= 0 {
		requested = s.Config.Ingest.Minutes
	}
	return repo.NormalizeMinutes(requested)
}
