package models

import "time"

// ValuationStats summarises a value curve.
type ValuationStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// ValuationResult is a portfolio value curve over a date range.
type ValuationResult struct {
	PortfolioID      string         `json:"portfolio_id"`
	Start            time.Time      `json:"start"`
	End              time.Time      `json:"end"`
	Interval         Interval       `json:"interval"`
	Dates            []time.Time    `json:"dates"`
	Values           []float64      `json:"values"`
	MissingTickers   []string       `json:"missing_tickers,omitempty"`
	LastValue        float64        `json:"last_value"`
	CashBalance      float64        `json:"cash_balance"`
	TotalAmount      float64        `json:"total_amount"`
	InitialAmount    float64        `json:"initial_amount"`
	EvolutionPct     float64        `json:"evolution_pct"`
	EvolutionDefined bool           `json:"evolution_defined"`
	Stats            ValuationStats `json:"stats"`
}
