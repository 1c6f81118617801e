package valuation

import (
	"bytes"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

func TestRenderValuationChart(t *testing.T) {
	v := &models.ValuationResult{
		Interval:      models.IntervalDaily,
		Dates:         []time.Time{day("2024-01-02"), day("2024-01-03"), day("2024-01-04")},
		Values:        []float64{1500, 1525, 1490},
		CashBalance:   100,
		InitialAmount: 1000,
	}

	png, err := RenderValuationChart("Growth", v)
	if err != nil {
		t.Fatalf("RenderValuationChart() error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG (%d bytes)", len(png))
	}
}

func TestRenderValuationChart_TooFewPoints(t *testing.T) {
	v := &models.ValuationResult{Dates: []time.Time{day("2024-01-02")}, Values: []float64{1}}
	if _, err := RenderValuationChart("", v); err == nil {
		t.Fatal("expected error for a single point")
	}
}
