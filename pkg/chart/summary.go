package chart

// NoData is shown in place of statistics for an empty series.
const NoData = "No data"

// SummaryRow is the per-platform statistics line shown under a chart.
type SummaryRow struct {
	Name    string `json:"name" msgpack:"name"`
	Color   string `json:"color,omitempty" msgpack:"color,omitempty"`
	Current string `json:"current" msgpack:"current"`
	Min     string `json:"min" msgpack:"min"`
	Max     string `json:"max" msgpack:"max"`
	Mean    string `json:"mean" msgpack:"mean"`
}

// Summarize formats current, min, max and mean for every series. Statistics
// are recomputed from the samples.
func Summarize(series []Series, ct ChartType) []SummaryRow {
	rows := make([]SummaryRow, 0, len(series))
	for _, s := range series {
		s = s.Sorted()
		row := SummaryRow{Name: s.Name, Color: s.Color, Current: NoData, Min: NoData, Max: NoData, Mean: NoData}
		if latest, ok := s.Latest(); ok {
			row.Current = ct.FormatValue(latest.Value)
			row.Min = ct.FormatValue(*s.Min)
			row.Max = ct.FormatValue(*s.Max)
			row.Mean = ct.FormatValue(*s.Mean)
		}
		rows = append(rows, row)
	}
	return rows
}
