package models

import (
	"math"
	"time"
)

// Interval is a bar granularity.
type Interval string

const (
	IntervalDaily   Interval = "1d"
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// Rank orders intervals from finest to coarsest; unknown intervals rank -1.
func (i Interval) Rank() int {
	switch i {
	case IntervalDaily:
		return 0
	case IntervalWeekly:
		return 1
	case IntervalMonthly:
		return 2
	}
	return -1
}

// PriceBar is one OHLCV bar. Price fields are nil when the provider reported
// no value or a non-finite value for that bar.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   *float64  `json:"open"`
	High   *float64  `json:"high"`
	Low    *float64  `json:"low"`
	Close  *float64  `json:"close"`
	Volume int64     `json:"volume"`
}

// FiniteOrNil returns a pointer to v, or nil when v is NaN or infinite.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// HistoryQuery is a resolved price history range. A zero Start means the
// earliest data the provider has.
type HistoryQuery struct {
	Start    time.Time
	End      time.Time
	Interval Interval
}

// RangeRequest is the user-facing form of a history range: either a period
// such as "5d", "6mo", "ytd", "max" or an explicit start date.
type RangeRequest struct {
	Period   string `json:"period,omitempty"`
	Start    string `json:"start,omitempty"`
	Interval string `json:"interval,omitempty"`
}

// TickerHistory is the price history for one ticker.
type TickerHistory struct {
	Ticker string     `json:"ticker"`
	Bars   []PriceBar `json:"bars"`
}
