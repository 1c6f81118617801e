package valuation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// DefaultPeriod is used when neither a period nor a start date is given.
const DefaultPeriod = "1mo"

var periodPattern = regexp.MustCompile(`^(\d+)(d|wk|mo|y)$`)

// PeriodStart returns the start of the relative period ending at now. "max"
// yields the zero time, meaning the earliest available data.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	switch period {
	case "max":
		return time.Time{}, nil
	case "ytd":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	m := periodPattern.FindStringSubmatch(period)
	if m == nil {
		return time.Time{}, models.NewValidationError("period", "unrecognised period %q", period)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return time.Time{}, models.NewValidationError("period", "period %q must be positive", period)
	}
	switch m[2] {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "wk":
		return now.AddDate(0, 0, -7*n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	default:
		return now.AddDate(-n, 0, 0), nil
	}
}

// IntervalForSpan picks the bar interval for a range: daily up to a year,
// weekly up to five years, monthly beyond.
func IntervalForSpan(start, end time.Time) models.Interval {
	if start.IsZero() {
		return models.IntervalMonthly
	}
	switch {
	case !start.Before(end.AddDate(-1, 0, 0)):
		return models.IntervalDaily
	case !start.Before(end.AddDate(-5, 0, 0)):
		return models.IntervalWeekly
	default:
		return models.IntervalMonthly
	}
}

// ResolveRange turns a user range request into a provider query ending at now.
// A start date takes precedence over a period. An explicit interval is honoured
// only when it is not finer than the derived one.
func ResolveRange(r models.RangeRequest, now time.Time) (models.HistoryQuery, error) {
	now = now.UTC()
	var start time.Time
	if s := strings.TrimSpace(r.Start); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return models.HistoryQuery{}, models.NewValidationError("start", "must be a YYYY-MM-DD date")
		}
		if !t.Before(now) {
			return models.HistoryQuery{}, models.NewValidationError("start", "must be in the past")
		}
		start = t
	} else {
		period := r.Period
		if strings.TrimSpace(period) == "" {
			period = DefaultPeriod
		}
		t, err := PeriodStart(period, now)
		if err != nil {
			return models.HistoryQuery{}, err
		}
		start = t
	}

	interval := IntervalForSpan(start, now)
	if s := strings.TrimSpace(r.Interval); s != "" {
		explicit := models.Interval(strings.ToLower(s))
		if explicit.Rank() < 0 {
			return models.HistoryQuery{}, models.NewValidationError("interval", "must be one of 1d, 1wk, 1mo")
		}
		if explicit.Rank() < interval.Rank() {
			return models.HistoryQuery{}, models.NewValidationError("interval", "%s is too fine for this range, use %s or coarser", explicit, interval)
		}
		interval = explicit
	}

	return models.HistoryQuery{Start: start, End: now, Interval: interval}, nil
}
