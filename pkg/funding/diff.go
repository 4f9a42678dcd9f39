package funding

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// Platform tags used by the dashboard.
const (
	Hyperliquid = "hyperliquid"
	Lighter     = "lighter"
)

// HoursPerYear converts an hourly funding rate into a yearly one.
const HoursPerYear = 24 * 365

// Annualize turns an hourly decimal rate into an annualized percentage.
func Annualize(hourly float64) float64 {
	return hourly * HoursPerYear * 100
}

// RateRecord is one platform's funding rate for a market. OpenInterest is
// USD notional and zero when the venue does not report it.
type RateRecord struct {
	Market         string  `json:"market" msgpack:"market"`
	Dex            string  `json:"dex" msgpack:"dex"`
	Rate           float64 `json:"rate" msgpack:"rate"`
	AnnualizedRate float64 `json:"annualized_rate" msgpack:"annualized_rate"`
	OpenInterest   float64 `json:"open_interest,omitempty" msgpack:"open_interest,omitempty"`
	Timestamp      int64   `json:"timestamp" msgpack:"timestamp"`
}

// Percent is a percentage that may be not computable, which is distinct
// from a legitimate 0%. It serializes to null when not computable.
type Percent struct {
	Value float64
	Valid bool
}

// NotComputable is the placeholder shown for an invalid Percent.
const NotComputable = "n/a"

// PercentOf returns num/den*100, invalid when den is zero or the result is not finite.
func PercentOf(num, den float64) Percent {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return Percent{}
	}
	v := num / den * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Percent{}
	}
	return Percent{Value: v, Valid: true}
}

func (p Percent) String() string {
	if !p.Valid {
		return NotComputable
	}
	return fmt.Sprintf("%.2f%%", p.Value)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*p = Percent{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Percent{Value: v, Valid: true}
	return nil
}

var (
	_ msgpack.CustomEncoder = Percent{}
	_ msgpack.CustomDecoder = (*Percent)(nil)
)

func (p Percent) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !p.Valid {
		return enc.EncodeNil()
	}
	return enc.EncodeFloat64(p.Value)
}

func (p *Percent) DecodeMsgpack(dec *msgpack.Decoder) error {
	code, err := dec.PeekCode()
	if err != nil {
		return err
	}
	if code == msgpcode.Nil {
		*p = Percent{}
		return dec.DecodeNil()
	}
	v, err := dec.DecodeFloat64()
	if err != nil {
		return fmt.Errorf("funding: decode percent: %w", err)
	}
	*p = Percent{Value: v, Valid: true}
	return nil
}

// DiffRow compares two platforms' rates for one market.
type DiffRow struct {
	Market       string  `json:"market" msgpack:"market"`
	RateA        float64 `json:"rate_a" msgpack:"rate_a"`
	RateB        float64 `json:"rate_b" msgpack:"rate_b"`
	AbsoluteDiff float64 `json:"absolute_diff" msgpack:"absolute_diff"`
	PercentDiff  Percent `json:"percent_diff" msgpack:"percent_diff"`
}

type pair struct {
	a, b       float64
	hasA, hasB bool
}

// Diff joins the annualized rates of tagA and tagB by market. Rows keep the
// order in which markets first appear in batch and exist only for markets
// carrying both tags. A later record for the same market and tag replaces
// an earlier one; records with other tags are ignored.
func Diff(batch []RateRecord, tagA, tagB string) []DiffRow {
	order := make([]string, 0)
	pairs := make(map[string]*pair)
	for _, rec := range batch {
		p, ok := pairs[rec.Market]
		if !ok {
			p = &pair{}
			pairs[rec.Market] = p
			order = append(order, rec.Market)
		}
		switch rec.Dex {
		case tagA:
			p.a, p.hasA = rec.AnnualizedRate, true
		case tagB:
			p.b, p.hasB = rec.AnnualizedRate, true
		}
	}

	rows := make([]DiffRow, 0, len(order))
	for _, market := range order {
		p := pairs[market]
		if !p.hasA || !p.hasB {
			continue
		}
		diff := p.a - p.b
		rows = append(rows, DiffRow{
			Market:       market,
			RateA:        p.a,
			RateB:        p.b,
			AbsoluteDiff: diff,
			PercentDiff:  PercentOf(diff, p.b),
		})
	}
	return rows
}

// DiffDefault compares Hyperliquid (A) against Lighter (B).
func DiffDefault(batch []RateRecord) []DiffRow {
	return Diff(batch, Hyperliquid, Lighter)
}

// CommonMarkets lists markets quoted by both tags, in first-seen order.
func CommonMarkets(batch []RateRecord, tagA, tagB string) []string {
	rows := Diff(batch, tagA, tagB)
	markets := make([]string, 0, len(rows))
	for _, row := range rows {
		markets = append(markets, row.Market)
	}
	return markets
}
