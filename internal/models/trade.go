package models

import (
	"math"
	"strings"
	"time"
)

// TradeAction is BUY or SELL.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// ParseTradeAction accepts buy/sell in any case.
func ParseTradeAction(s string) (TradeAction, error) {
	switch TradeAction(strings.ToUpper(strings.TrimSpace(s))) {
	case TradeActionBuy:
		return TradeActionBuy, nil
	case TradeActionSell:
		return TradeActionSell, nil
	}
	return "", NewValidationError("action", "must be BUY or SELL, got %q", s)
}

// Trade is an immutable record of an executed buy or sell.
type Trade struct {
	TradeID     string      `json:"trade_id"`
	PortfolioID string      `json:"portfolio_id"`
	UserID      string      `json:"user_id"`
	AssetName   string      `json:"asset_name"`
	Action      TradeAction `json:"action"`
	Price       float64     `json:"price"`
	Quantity    int64       `json:"quantity"`
	TradeDate   time.Time   `json:"trade_date"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TradeRequest is the body of a trade submission.
type TradeRequest struct {
	PortfolioID string     `json:"portfolio_id"`
	AssetName   string     `json:"asset_name"`
	Action      string     `json:"action"`
	Price       float64    `json:"price"`
	Quantity    int64      `json:"quantity"`
	TradeDate   *time.Time `json:"trade_date,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Normalize trims text fields and upper-cases the ticker.
func (r *TradeRequest) Normalize() {
	r.PortfolioID = strings.TrimSpace(r.PortfolioID)
	r.AssetName = NormalizeTicker(r.AssetName)
	r.Description = strings.TrimSpace(r.Description)
}

// Validate checks the request shape. Quantity and price bounds are enforced
// by the ledger so that rejection reasons stay in one place.
func (r *TradeRequest) Validate() error {
	if r.PortfolioID == "" {
		return NewValidationError("portfolio_id", "is required")
	}
	if r.AssetName == "" {
		return NewValidationError("asset_name", "is required")
	}
	if strings.ContainsAny(r.AssetName, ", ") {
		return NewValidationError("asset_name", "contains an invalid character")
	}
	if _, err := ParseTradeAction(r.Action); err != nil {
		return err
	}
	if len(r.Description) > 1024 {
		return NewValidationError("description", "must be at most 1024 characters")
	}
	return nil
}

// TradeUpdateRequest edits a recorded trade. Only the record changes; the
// portfolio ledger is not re-derived.
type TradeUpdateRequest struct {
	Price       *float64   `json:"price,omitempty"`
	Quantity    *int64     `json:"quantity,omitempty"`
	TradeDate   *time.Time `json:"trade_date,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// Apply validates and merges the update into t.
func (r *TradeUpdateRequest) Apply(t *Trade) error {
	if r.Price != nil {
		if math.IsNaN(*r.Price) || math.IsInf(*r.Price, 0) || *r.Price <= 0 {
			return NewValidationError("price", "must be a positive number")
		}
		t.Price = *r.Price
	}
	if r.Quantity != nil {
		if *r.Quantity <= 0 {
			return NewValidationError("quantity", "must be positive")
		}
		t.Quantity = *r.Quantity
	}
	if r.TradeDate != nil {
		t.TradeDate = r.TradeDate.UTC()
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if len(d) > 1024 {
			return NewValidationError("description", "must be at most 1024 characters")
		}
		t.Description = d
	}
	return nil
}

// TradeResult is returned after a trade is applied.
type TradeResult struct {
	Trade     *Trade     `json:"trade"`
	Portfolio *Portfolio `json:"portfolio"`
}
