package lighter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Number decodes a JSON number that Lighter may send either bare or quoted.
type Number float64

// UnmarshalJSON accepts 1.5, "1.5", "" and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("lighter: parse number %s: %w", string(data), err)
	}
	*n = Number(v)
	return nil
}

// Float returns the decoded value.
func (n Number) Float() float64 { return float64(n) }

// OrderBook is a single market entry of /api/v1/orderBooks.
type OrderBook struct {
	Symbol                 string `json:"symbol"`
	MarketID               int64  `json:"market_id"`
	Status                 string `json:"status"`
	TakerFee               Number `json:"taker_fee"`
	MakerFee               Number `json:"maker_fee"`
	MinBaseAmount          Number `json:"min_base_amount"`
	MinQuoteAmount         Number `json:"min_quote_amount"`
	SupportedSizeDecimals  int    `json:"supported_size_decimals"`
	SupportedPriceDecimals int    `json:"supported_price_decimals"`
}

// Active reports whether the market is open for trading.
func (o OrderBook) Active() bool {
	return strings.EqualFold(o.Status, "active")
}

// OrderBooksResponse mirrors /api/v1/orderBooks.
type OrderBooksResponse struct {
	Code       int         `json:"code"`
	Message    string      `json:"message,omitempty"`
	OrderBooks []OrderBook `json:"order_books"`
}

// FundingRate is one entry of /api/v1/funding-rates. The endpoint also quotes
// rates of other exchanges, distinguished by Exchange.
type FundingRate struct {
	MarketID int64  `json:"market_id"`
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Rate     Number `json:"rate"`
}

// FundingRatesResponse mirrors /api/v1/funding-rates.
type FundingRatesResponse struct {
	Code         int           `json:"code"`
	Message      string        `json:"message,omitempty"`
	FundingRates []FundingRate `json:"funding_rates"`
}

// Funding is one settled funding interval of /api/v1/fundings.
type Funding struct {
	Timestamp int64  `json:"timestamp"` // Seconds or milliseconds
	Value     Number `json:"value"`
	Rate      Number `json:"rate"`
	Direction string `json:"direction"` // "long" when longs pay, "short" when shorts pay
}

// FundingsResponse mirrors /api/v1/fundings.
type FundingsResponse struct {
	Code       int       `json:"code"`
	Message    string    `json:"message,omitempty"`
	Resolution string    `json:"resolution"`
	Fundings   []Funding `json:"fundings"`
}

// apiStatus exposes the envelope code shared by every response.
type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func checkStatus(body []byte) error {
	var status apiStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil
	}
	if status.Code != 0 && status.Code != 200 {
		return fmt.Errorf("lighter: api code %d: %s", status.Code, status.Message)
	}
	return nil
}
