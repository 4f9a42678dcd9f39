package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/cli"
	"perpdash-api/internal/config"
	"perpdash-api/internal/svc"
	marketpkg "perpdash-api/pkg/market"
)

const shutdownTimeout = 10 * time.Second // Grace period for a running job

var (
	configFile = flag.String("f", "etc/perpdash.yaml", "the config file")
	once       = flag.Bool("once", false, "run a single ingest pass and exit")
)

var errNoDatabase = errors.New("ingest: postgres.dsn is required")

type cronLogger struct{}

func (cronLogger) Printf(format string, args ...interface{}) {
	logx.Infof("cron: "+format, args...)
}

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	// Sets up logx from the Log section and the dev server exposing /metrics.
	cfg.MustSetUp()
	cli.LogConfigSummary(cfg)

	if !cfg.HasDatabase() {
		logx.Must(errNoDatabase)
	}

	svcCtx := svc.NewServiceContext(*cfg, *configFile)
	// The ingestor records explicitly so that Ingest.Symbols applies.
	for _, p := range svcCtx.MarketProviders {
		marketpkg.AttachPersistence(p, nil)
	}

	retain := time.Duration(cfg.Ingest.RetainDays) * 24 * time.Hour
	ingestor := newRateIngestor(svcCtx.MarketProviders, cfg.Ingest.Symbols, svcCtx.Persistence, svcCtx.FundingRatesModel, retain)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := ingestor.run(ctx); err != nil {
			logx.Errorf("ingest: run failed: %v", err)
			os.Exit(1)
		}
		return
	}

	scheduler := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.PrintfLogger(cronLogger{})),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(cronLogger{}))),
	)
	if _, err := scheduler.AddFunc(cfg.Ingest.Cron, func() {
		_ = ingestor.run(ctx)
	}); err != nil {
		logx.Must(err)
	}

	// Run once immediately on startup
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ingestor.run(ctx)
	}()

	scheduler.Start()
	logx.Infof("ingest: scheduled with %q. Press Ctrl+C to stop.", cfg.Ingest.Cron)

	<-ctx.Done()
	logx.Info("ingest: shutdown signal received, stopping scheduler...")

	done := make(chan struct{})
	go func() {
		<-scheduler.Stop().Done()
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("ingest: all jobs stopped cleanly")
	case <-time.After(shutdownTimeout):
		logx.Info("ingest: shutdown timeout exceeded, forcing exit")
	}
}
