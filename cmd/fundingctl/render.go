package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"

	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
)

const (
	plotWidth  = 72
	plotHeight = 14
)

var platformColors = map[string]asciigraph.AnsiColor{
	funding.Hyperliquid: asciigraph.Green,
	funding.Lighter:     asciigraph.Blue,
}

// writeDiffTable prints one row per market with both annualized rates.
func writeDiffTable(w io.Writer, rows []funding.DiffRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MARKET\tHYPERLIQUID\tLIGHTER\tDIFF\tDIFF %\t")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%.2f%%\t%.2f%%\t%.2f\t%s\t\n",
			row.Market, row.RateA, row.RateB, row.AbsoluteDiff, row.PercentDiff)
	}
	return tw.Flush()
}

// writePlot draws every non-empty series on one ASCII chart followed by
// the summary row of each series.
func writePlot(w io.Writer, market string, ct chart.ChartType, series []chart.Series) error {
	data := make([][]float64, 0, len(series))
	colors := make([]asciigraph.AnsiColor, 0, len(series))
	legends := make([]string, 0, len(series))
	for _, s := range series {
		if len(s.Samples) == 0 {
			continue
		}
		values := make([]float64, len(s.Samples))
		for i, sample := range s.Samples {
			values[i] = sample.Value
		}
		data = append(data, values)
		color, ok := platformColors[s.Name]
		if !ok {
			color = asciigraph.Default
		}
		colors = append(colors, color)
		legends = append(legends, s.Name)
	}

	if len(data) == 0 {
		fmt.Fprintf(w, "%s %s: %s\n", market, ct, chart.NoData)
		return nil
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Width(plotWidth),
		asciigraph.Height(plotHeight),
		asciigraph.Caption(fmt.Sprintf("%s %s", market, ct)),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.AxisColor(asciigraph.DarkGray),
		asciigraph.LabelColor(asciigraph.DarkGray),
	)
	fmt.Fprintln(w, graph)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIES\tCURRENT\tMIN\tMAX\tMEAN")
	for _, row := range chart.Summarize(series, ct) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Name, row.Current, row.Min, row.Max, row.Mean)
	}
	return tw.Flush()
}

func writeScore(w io.Writer, score funding.Score) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "market\t%s\n", score.Market)
	fmt.Fprintf(tw, "score\t%.4f\n", score.Score)
	fmt.Fprintf(tw, "hyperliquid\t%.2f%%\n", score.HLRate)
	fmt.Fprintf(tw, "lighter\t%.2f%%\n", score.LighterRate)
	fmt.Fprintf(tw, "differential\t%.4f\n", score.Components.Differential)
	fmt.Fprintf(tw, "volatility\t%.4f\n", score.Components.Volatility)
	fmt.Fprintf(tw, "trend/day\t%.4f\n", score.Components.Trend)
	fmt.Fprintf(tw, "current diff\t%.4f\n", score.CurrentDifferential)
	fmt.Fprintf(tw, "confidence\t%.2f (%d points)\n", score.Confidence, score.DataPoints)
	fmt.Fprintf(tw, "expected pnl\t%.4f\n", score.ExpectedPnLRate)
	return tw.Flush()
}
