package types

import (
	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
)

type LatestBatchResponse struct {
	Data []funding.RateRecord `json:"data"`
}

type MarketsResponse struct {
	Data []string `json:"data"`
}

type MarketMinutesRequest struct {
	Market  string `form:"market"`
	Dex     string `form:"dex"`
	Minutes int    `form:"minutes,optional"`
}

type MinutePoint struct {
	Timestamp      int64   `json:"timestamp"`
	AnnualizedRate float64 `json:"annualized_rate"`
}

type MarketMinutesResponse struct {
	Data []MinutePoint `json:"data"`
}

type DiffResponse struct {
	Data []funding.DiffRow `json:"data"`
}

type ScoreMarketRequest struct {
	Market  string `form:"market"`
	Minutes int    `form:"minutes,optional"`
}

type ScoreMarketResponse struct {
	Data funding.Score `json:"data"`
}

type ChartSeriesRequest struct {
	Market  string `form:"market"`
	Type    string `form:"type,optional"`
	Minutes int    `form:"minutes,optional"`
}

type ChartSeriesResponse struct {
	Market  string             `json:"market" msgpack:"market"`
	Type    string             `json:"type" msgpack:"type"`
	Series  []chart.Series     `json:"series" msgpack:"series"`
	Summary []chart.SummaryRow `json:"summary" msgpack:"summary"`
}

type ChartRenderRequest struct {
	Market  string  `form:"market"`
	Type    string  `form:"type,optional"`
	Minutes int     `form:"minutes,optional"`
	Width   float64 `form:"width,optional"`
	Height  float64 `form:"height,optional"`
	Dpr     float64 `form:"dpr,optional"`
	Hover   string  `form:"hover,optional"`
}

type ChartLiveRequest struct {
	Market  string  `form:"market"`
	Type    string  `form:"type,optional"`
	Minutes int     `form:"minutes,optional"`
	Width   float64 `form:"width,optional"`
	Height  float64 `form:"height,optional"`
	Dpr     float64 `form:"dpr,optional"`
}

// LiveMessage is a client event on the live chart websocket:
// {"type":"move","x":..}, {"type":"leave"} or {"type":"resize","width":..,"height":..,"dpr":..}.
type LiveMessage struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Dpr    float64 `json:"dpr,omitempty"`
}

// LiveFrame is the text message sent after each binary PNG frame.
type LiveFrame struct {
	Type  string            `json:"type"`
	Bytes int               `json:"bytes,omitempty"`
	Hover *chart.HoverState `json:"hover,omitempty"`
	Error string            `json:"error,omitempty"`
}
