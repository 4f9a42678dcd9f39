package chart

import (
	"fmt"
	"strings"
	"time"
)

// ChartType selects value formatting.
type ChartType string

const (
	Funding      ChartType = "funding"
	OpenInterest ChartType = "openInterest"
)

const day = float64(24 * time.Hour / time.Millisecond)

// ParseChartType accepts the wire names of the chart types; empty means funding.
func ParseChartType(raw string) (ChartType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "funding":
		return Funding, nil
	case "openinterest", "open_interest", "oi":
		return OpenInterest, nil
	default:
		return "", fmt.Errorf("chart: unknown chart type %q", raw)
	}
}

// FormatValue renders a value the way axis labels and tooltips show it.
func (c ChartType) FormatValue(v float64) string {
	if c == OpenInterest {
		return fmt.Sprintf("$%.0fK", v/1000)
	}
	return fmt.Sprintf("%.4f", v)
}

// FormatTimeTick renders an axis timestamp with granularity picked from the
// plotted span: month for spans over 180 days, day for spans over 7 days and
// otherwise hour and minute. All times are UTC.
func FormatTimeTick(t float64, spanMillis float64) string {
	ts := time.UnixMilli(int64(t)).UTC()
	spanDays := spanMillis / day
	switch {
	case spanDays > 180:
		return ts.Format("Jan 2006")
	case spanDays > 7:
		return ts.Format("02 Jan 2006")
	default:
		return ts.Format("15:04") + " UTC"
	}
}

// FormatHoverTime renders the tooltip header.
func FormatHoverTime(t float64) string {
	return time.UnixMilli(int64(t)).UTC().Format("2006-01-02 15:04") + " UTC"
}
