package valuation

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/folio/internal/models"
)

// RenderValuationChart renders the total value (positions plus cash) of a
// valuation as a PNG line chart against the initial amount.
func RenderValuationChart(name string, v *models.ValuationResult) ([]byte, error) {
	if len(v.Dates) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(v.Dates))
	}

	totalY := make([]float64, len(v.Values))
	baseY := make([]float64, len(v.Values))
	for i, val := range v.Values {
		totalY[i] = val + v.CashBalance
		baseY[i] = v.InitialAmount
	}

	totalSeries := chart.TimeSeries{
		Name: "Total Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: v.Dates,
		YValues: totalY,
	}

	baseSeries := chart.TimeSeries{
		Name: "Initial Amount",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: v.Dates,
		YValues: baseY,
	}

	dateLayout := "Jan 06"
	if v.Interval == models.IntervalDaily && v.Dates[len(v.Dates)-1].Sub(v.Dates[0]) < 120*24*time.Hour {
		dateLayout = "02 Jan"
	}

	title := "Portfolio Value"
	if name != "" {
		title = name
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format(dateLayout)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					if f >= 10000 || f <= -10000 {
						return fmt.Sprintf("$%.0fk", f/1000)
					}
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			totalSeries,
			baseSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
