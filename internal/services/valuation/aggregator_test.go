package valuation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func bar(date string, close float64) models.PriceBar {
	return models.PriceBar{Date: day(date), Close: models.FiniteOrNil(close)}
}

func TestAggregate_SingleTickerWithEvolution(t *testing.T) {
	positions := models.Positions{{Ticker: "AAPL", Quantity: 10}}
	series := map[string][]models.PriceBar{
		"AAPL": {bar("2024-01-02", 150.00), bar("2024-01-03", 152.50)},
	}

	curve, err := Aggregate(positions, series)
	require.NoError(t, err)
	assert.Equal(t, []float64{1500.00, 1525.00}, curve.Values)
	assert.Equal(t, []time.Time{day("2024-01-02"), day("2024-01-03")}, curve.Dates)

	pct, defined := Evolution(curve.Last(), 0, 1000)
	assert.True(t, defined)
	assert.Equal(t, 52.5, pct)
}

func TestAggregate_OuterJoinCarriesLastCloseForward(t *testing.T) {
	positions := models.Positions{{Ticker: "AAPL", Quantity: 2}, {Ticker: "BHP.AX", Quantity: 10}}
	series := map[string][]models.PriceBar{
		"AAPL":   {bar("2024-01-02", 100), bar("2024-01-04", 110)},
		"BHP.AX": {bar("2024-01-03", 40), bar("2024-01-04", 41)},
	}

	curve, err := Aggregate(positions, series)
	require.NoError(t, err)
	require.Len(t, curve.Dates, 3)
	// 01-02: AAPL only (BHP not yet priced)
	// 01-03: AAPL carried at 100, BHP 40
	// 01-04: both priced
	assert.Equal(t, []float64{200, 600, 630}, curve.Values)
	assert.Empty(t, curve.Missing)
}

func TestAggregate_NilClosesTreatedAsMissing(t *testing.T) {
	positions := models.Positions{{Ticker: "AAPL", Quantity: 1}}
	series := map[string][]models.PriceBar{
		"AAPL": {
			bar("2024-01-02", 100),
			{Date: day("2024-01-03")},
			bar("2024-01-04", 102),
		},
	}

	curve, err := Aggregate(positions, series)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 102}, curve.Values)
}

func TestAggregate_TickerWithoutDataReportedMissing(t *testing.T) {
	positions := models.Positions{{Ticker: "AAPL", Quantity: 1}, {Ticker: "GONE", Quantity: 5}}
	series := map[string][]models.PriceBar{
		"AAPL": {bar("2024-01-02", 100)},
	}

	curve, err := Aggregate(positions, series)
	require.NoError(t, err)
	assert.Equal(t, []string{"GONE"}, curve.Missing)
	assert.Equal(t, []float64{100}, curve.Values)
}

func TestAggregate_NoDataForAnyTicker(t *testing.T) {
	positions := models.Positions{{Ticker: "AAPL", Quantity: 1}}

	_, err := Aggregate(positions, map[string][]models.PriceBar{})
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = Aggregate(positions, map[string][]models.PriceBar{"AAPL": {{Date: day("2024-01-02")}}})
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestAggregate_RoundsToCents(t *testing.T) {
	positions := models.Positions{{Ticker: "X", Quantity: 3}}
	series := map[string][]models.PriceBar{
		"X": {bar("2024-01-02", 0.335), bar("2024-01-03", 33.3333)},
	}

	curve, err := Aggregate(positions, series)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.01, 100.00}, curve.Values)
}

func TestAggregate_UnsortedAndIntradayTimestamps(t *testing.T) {
	positions := models.Positions{{Ticker: "AAPL", Quantity: 1}}
	series := map[string][]models.PriceBar{
		"AAPL": {
			{Date: time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC), Close: models.FiniteOrNil(11)},
			{Date: time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), Close: models.FiniteOrNil(10)},
		},
	}

	curve, err := Aggregate(positions, series)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day("2024-01-02"), day("2024-01-03")}, curve.Dates)
	assert.Equal(t, []float64{10, 11}, curve.Values)
}

func TestEvolution_UndefinedForZeroInitial(t *testing.T) {
	pct, defined := Evolution(500, 100, 0)
	assert.False(t, defined)
	assert.Equal(t, 0.0, pct)
}

func TestEvolution_IncludesCash(t *testing.T) {
	pct, defined := Evolution(500, 400, 1000)
	assert.True(t, defined)
	assert.Equal(t, -10.0, pct)
	assert.Equal(t, 900.0, TotalAmount(500, 400))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{100, 200, 300})
	assert.Equal(t, 100.0, s.Min)
	assert.Equal(t, 300.0, s.Max)
	assert.Equal(t, 200.0, s.Mean)
	assert.Equal(t, 100.0, s.StdDev)

	single := Summarize([]float64{42})
	assert.Equal(t, 42.0, single.Mean)
	assert.Equal(t, 0.0, single.StdDev)

	assert.Equal(t, models.ValuationStats{}, Summarize(nil))
}
