package valuation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/models"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestPeriodStart(t *testing.T) {
	tests := []struct {
		period string
		want   time.Time
	}{
		{"5d", fixedNow.AddDate(0, 0, -5)},
		{"1wk", fixedNow.AddDate(0, 0, -7)},
		{"3mo", fixedNow.AddDate(0, -3, 0)},
		{"1y", fixedNow.AddDate(-1, 0, 0)},
		{"10y", fixedNow.AddDate(-10, 0, 0)},
		{"ytd", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"MAX", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			got, err := PeriodStart(tt.period, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeriodStart_Invalid(t *testing.T) {
	for _, p := range []string{"", "5", "d", "0d", "3h", "-1y", "1 year"} {
		_, err := PeriodStart(p, fixedNow)
		assert.True(t, errors.Is(err, models.ErrValidation), "period %q: %v", p, err)
	}
}

func TestIntervalForSpan(t *testing.T) {
	assert.Equal(t, models.IntervalDaily, IntervalForSpan(fixedNow.AddDate(0, 0, -5), fixedNow))
	assert.Equal(t, models.IntervalDaily, IntervalForSpan(fixedNow.AddDate(-1, 0, 0), fixedNow))
	assert.Equal(t, models.IntervalWeekly, IntervalForSpan(fixedNow.AddDate(-2, 0, 0), fixedNow))
	assert.Equal(t, models.IntervalWeekly, IntervalForSpan(fixedNow.AddDate(-5, 0, 0), fixedNow))
	assert.Equal(t, models.IntervalMonthly, IntervalForSpan(fixedNow.AddDate(-10, 0, 0), fixedNow))
	assert.Equal(t, models.IntervalMonthly, IntervalForSpan(time.Time{}, fixedNow))
}

func TestResolveRange(t *testing.T) {
	q, err := ResolveRange(models.RangeRequest{}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, -1, 0), q.Start)
	assert.Equal(t, fixedNow, q.End)
	assert.Equal(t, models.IntervalDaily, q.Interval)

	q, err = ResolveRange(models.RangeRequest{Start: "2020-01-01"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, day("2020-01-01"), q.Start)
	assert.Equal(t, models.IntervalWeekly, q.Interval)

	q, err = ResolveRange(models.RangeRequest{Period: "6mo", Interval: "1wk"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, models.IntervalWeekly, q.Interval)
}

func TestResolveRange_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  models.RangeRequest
	}{
		{"bad start", models.RangeRequest{Start: "15/06/2024"}},
		{"future start", models.RangeRequest{Start: "2030-01-01"}},
		{"bad period", models.RangeRequest{Period: "forever"}},
		{"unknown interval", models.RangeRequest{Period: "5d", Interval: "1h"}},
		{"interval too fine", models.RangeRequest{Period: "10y", Interval: "1d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveRange(tt.req, fixedNow)
			assert.True(t, errors.Is(err, models.ErrValidation), "got %v", err)
		})
	}
}
