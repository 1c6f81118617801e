package eodhd

import "time"

// EODOption configures an EOD request
type EODOption func(*EODParams)

// EODParams holds EOD request parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d, w, m
	Order  string // a, d
}

// WithDateRange sets the date range. A zero bound is left open.
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the bar period
func WithPeriod(period string) EODOption {
	return func(p *EODParams) {
		p.Period = period
	}
}
