package valuation

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/folio/internal/models"
)

// Summarize computes min, max, mean and sample standard deviation of values.
func Summarize(values []float64) models.ValuationStats {
	if len(values) == 0 {
		return models.ValuationStats{}
	}
	s := models.ValuationStats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: round2(stat.Mean(values, nil)),
	}
	if len(values) > 1 {
		s.StdDev = round2(stat.StdDev(values, nil))
	}
	return s
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
