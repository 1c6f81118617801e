// Package valuation turns per-ticker price histories into portfolio value curves.
package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/models"
)

// ErrNoData is returned when no held ticker has any usable close in range.
var ErrNoData = models.ErrNoData

// Curve is a dated series of portfolio values.
type Curve struct {
	Dates  []time.Time
	Values []float64
	// Missing lists held tickers with no usable close in the range.
	Missing []string
}

// Last returns the final value, or 0 for an empty curve.
func (c *Curve) Last() float64 {
	if len(c.Values) == 0 {
		return 0
	}
	return c.Values[len(c.Values)-1]
}

type closeAt struct {
	day   time.Time
	close decimal.Decimal
}

// Aggregate computes value(date) = sum(close x quantity) over every calendar
// date on which any held ticker has a close. A ticker without a bar on a date
// carries its previous close forward; before its first close it contributes
// nothing. Bars with a nil close are ignored. Values are rounded half away
// from zero to 2 decimals.
func Aggregate(positions models.Positions, series map[string][]models.PriceBar) (*Curve, error) {
	closes := make(map[string][]closeAt, len(positions))
	days := make(map[time.Time]struct{})
	curve := &Curve{}

	for _, pos := range positions {
		pts := usableCloses(series[pos.Ticker])
		if len(pts) == 0 {
			curve.Missing = append(curve.Missing, pos.Ticker)
			continue
		}
		closes[pos.Ticker] = pts
		for _, p := range pts {
			days[p.day] = struct{}{}
		}
	}
	if len(days) == 0 {
		return nil, ErrNoData
	}

	ordered := make([]time.Time, 0, len(days))
	for d := range days {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	cursor := make(map[string]int, len(closes))
	for _, day := range ordered {
		sum := decimal.Zero
		for _, pos := range positions {
			pts, ok := closes[pos.Ticker]
			if !ok {
				continue
			}
			i := cursor[pos.Ticker]
			for i < len(pts) && !pts[i].day.After(day) {
				i++
			}
			cursor[pos.Ticker] = i
			if i == 0 {
				continue
			}
			sum = sum.Add(pts[i-1].close.Mul(decimal.NewFromInt(pos.Quantity)))
		}
		curve.Dates = append(curve.Dates, day)
		curve.Values = append(curve.Values, sum.Round(2).InexactFloat64())
	}
	return curve, nil
}

// usableCloses returns one close per calendar day in date order. When a
// provider reports the same day twice the later bar wins.
func usableCloses(bars []models.PriceBar) []closeAt {
	byDay := make(map[time.Time]decimal.Decimal, len(bars))
	for _, b := range bars {
		if b.Close == nil {
			continue
		}
		byDay[calendarDay(b.Date)] = decimal.NewFromFloat(*b.Close)
	}
	out := make([]closeAt, 0, len(byDay))
	for d, c := range byDay {
		out = append(out, closeAt{day: d, close: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].day.Before(out[j].day) })
	return out
}

func calendarDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Evolution returns the percentage change of (lastValue + cash) over initial,
// rounded to 2 decimals. defined is false when initial is zero.
func Evolution(lastValue, cash, initial float64) (pct float64, defined bool) {
	if initial == 0 {
		return 0, false
	}
	init := decimal.NewFromFloat(initial)
	total := decimal.NewFromFloat(lastValue).Add(decimal.NewFromFloat(cash))
	return total.Sub(init).Div(init).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64(), true
}

// TotalAmount is lastValue + cash rounded to 2 decimals.
func TotalAmount(lastValue, cash float64) float64 {
	return decimal.NewFromFloat(lastValue).Add(decimal.NewFromFloat(cash)).Round(2).InexactFloat64()
}
