package chart

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimestampField is the raw point key carrying the sample time.
const TimestampField = "timestamp"

// ValueFields lists the raw point keys consulted for a sample value, in order.
// The first key holding a non-nil value wins; when none is present the value is 0.
var ValueFields = []string{"value", "rate", "annualized_rate"}

// RawPoint is an upstream sample exactly as decoded from JSON.
type RawPoint map[string]any

// RawSeries groups raw points for a single platform.
type RawSeries struct {
	Name   string     `json:"name"`
	Color  string     `json:"color,omitempty"`
	Points []RawPoint `json:"data"`
}

// Sample is a normalized (timestamp, value) pair. Timestamp is epoch milliseconds.
type Sample struct {
	Timestamp int64   `json:"timestamp" msgpack:"t"`
	Value     float64 `json:"value" msgpack:"v"`
}

// Series is a normalized platform series, ascending by timestamp.
// Min, Max and Mean are nil when the series has no samples.
type Series struct {
	Name    string   `json:"name" msgpack:"name"`
	Color   string   `json:"color,omitempty" msgpack:"color,omitempty"`
	Samples []Sample `json:"samples" msgpack:"samples"`
	Min     *float64 `json:"min" msgpack:"min"`
	Max     *float64 `json:"max" msgpack:"max"`
	Mean    *float64 `json:"mean" msgpack:"mean"`
}

// Normalize converts raw platform series into plotted series. Points with an
// unparseable or non-finite timestamp or value are dropped; the input is not modified.
func Normalize(raw []RawSeries) []Series {
	out := make([]Series, 0, len(raw))
	for _, rs := range raw {
		out = append(out, NormalizeSeries(rs))
	}
	return out
}

// NormalizeSeries normalizes a single raw series.
func NormalizeSeries(rs RawSeries) Series {
	samples := make([]Sample, 0, len(rs.Points))
	for _, p := range rs.Points {
		s, ok := normalizePoint(p)
		if !ok {
			continue
		}
		samples = append(samples, s)
	}
	return NewSeries(rs.Name, rs.Color, samples)
}

// NewSeries builds a Series from already-parsed samples. Samples are copied,
// non-finite values are dropped and the rest sorted ascending by timestamp.
func NewSeries(name, color string, samples []Sample) Series {
	clean := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		clean = append(clean, s)
	}
	sort.SliceStable(clean, func(i, j int) bool {
		return clean[i].Timestamp < clean[j].Timestamp
	})
	series := Series{Name: name, Color: color, Samples: clean}
	series.Min, series.Max, series.Mean = stats(clean)
	return series
}

func stats(samples []Sample) (min, max, mean *float64) {
	if len(samples) == 0 {
		return nil, nil, nil
	}
	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, s := range samples {
		if s.Value < lo {
			lo = s.Value
		}
		if s.Value > hi {
			hi = s.Value
		}
		sum += s.Value
	}
	avg := sum / float64(len(samples))
	return &lo, &hi, &avg
}

// Sorted returns a copy of s rebuilt through NewSeries: ascending by
// timestamp, non-finite values dropped and statistics recomputed.
func (s Series) Sorted() Series {
	return NewSeries(s.Name, s.Color, s.Samples)
}

// Latest returns the sample with the greatest timestamp.
func (s Series) Latest() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}

// Raw renders the series back into raw points.
func (s Series) Raw() RawSeries {
	points := make([]RawPoint, 0, len(s.Samples))
	for _, sample := range s.Samples {
		points = append(points, RawPoint{
			TimestampField: sample.Timestamp,
			ValueFields[0]: sample.Value,
		})
	}
	return RawSeries{Name: s.Name, Color: s.Color, Points: points}
}

func normalizePoint(p RawPoint) (Sample, bool) {
	ts, ok := parseTimestamp(p[TimestampField])
	if !ok {
		return Sample{}, false
	}
	value := 0.0
	for _, field := range ValueFields {
		raw, present := p[field]
		if !present || raw == nil {
			continue
		}
		v, ok := toFloat(raw)
		if !ok {
			return Sample{}, false
		}
		value = v
		break
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Sample{}, false
	}
	return Sample{Timestamp: ts, Value: value}, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw any) (int64, bool) {
	switch v := raw.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, false
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t.UnixMilli(), true
			}
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return finiteMillis(f)
		}
		return 0, false
	case time.Time:
		if v.IsZero() {
			return 0, false
		}
		return v.UnixMilli(), true
	default:
		f, ok := toFloat(raw)
		if !ok {
			return 0, false
		}
		return finiteMillis(f)
	}
}

func finiteMillis(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(text, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
