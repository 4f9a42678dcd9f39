package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/config"
	"perpdash-api/internal/repo"
	"perpdash-api/internal/svc"
	"perpdash-api/pkg/chart"
)

var (
	configFile = flag.String("f", "etc/perpdash.yaml", "the config file")
	minutes    = flag.Int("minutes", repo.DefaultMinutes, "history window in minutes")
	chartType  = flag.String("type", string(chart.Funding), "chart type for plot: funding | openInterest")
	timeout    = flag.Duration("timeout", 30*time.Second, "overall request timeout")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: fundingctl [flags] <command> [market]\n\n")
	fmt.Fprintf(out, "commands:\n")
	fmt.Fprintf(out, "  diff            latest Hyperliquid vs Lighter rates per market\n")
	fmt.Fprintf(out, "  markets         markets quoted by both venues\n")
	fmt.Fprintf(out, "  plot <market>   ASCII chart of a market's series\n")
	fmt.Fprintf(out, "  score <market>  spread score of a market\n\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Keep stdout for the tables.
	logx.Disable()

	svcCtx, err := svc.New(*cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, os.Stdout, svcCtx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "fundingctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, svcCtx *svc.ServiceContext, args []string) error {
	rates := svcCtx.Repo.Funding
	market := ""
	if len(args) > 1 {
		market = strings.ToUpper(strings.TrimSpace(args[1]))
	}
	window := svcCtx.WindowMinutes(*minutes)

	switch args[0] {
	case "diff":
		rows, err := rates.Diff(ctx)
		if err != nil {
			return err
		}
		return writeDiffTable(w, rows)
	case "markets":
		markets, err := rates.Markets(ctx)
		if err != nil {
			return err
		}
		for _, m := range markets {
			fmt.Fprintln(w, m)
		}
		return nil
	case "plot":
		if market == "" {
			return fmt.Errorf("plot: market is required")
		}
		ct, err := chart.ParseChartType(*chartType)
		if err != nil {
			return err
		}
		series, err := rates.Series(ctx, market, ct, window)
		if err != nil {
			return err
		}
		for i := range series {
			series[i].Color = svcCtx.ChartConfig.ColorFor(series[i].Name)
		}
		return writePlot(w, market, ct, series)
	case "score":
		if market == "" {
			return fmt.Errorf("score: market is required")
		}
		score, err := rates.Score(ctx, market, window)
		if err != nil {
			return err
		}
		return writeScore(w, score)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
