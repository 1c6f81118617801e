// Package models defines data structures for Folio
package models

import (
	"math"
	"strings"
	"time"
)

// Portfolio is a user-owned cash balance plus a set of share positions.
// LastAmount is the most recent computed total value (positions at market
// plus cash); it starts equal to InitialAmount.
type Portfolio struct {
	PortfolioID   string     `json:"portfolio_id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	InitialAmount float64    `json:"initial_amount"`
	LastAmount    float64    `json:"last_amount"`
	CashBalance   float64    `json:"cash_balance"`
	Positions     Positions  `json:"positions"`
	LastValuedAt  *time.Time `json:"last_valued_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ModifiedAt    time.Time  `json:"modified_at"`
}

// Ledger is the part of a portfolio a trade can change.
type Ledger struct {
	CashBalance float64
	Positions   Positions
}

// Ledger returns a detached copy of the portfolio's cash and positions.
func (p *Portfolio) Ledger() Ledger {
	return Ledger{CashBalance: p.CashBalance, Positions: p.Positions.Clone()}
}

// SetLedger replaces cash and positions.
func (p *Portfolio) SetLedger(l Ledger) {
	p.CashBalance = l.CashBalance
	p.Positions = l.Positions.Clone()
}

// Clone returns a deep copy.
func (p *Portfolio) Clone() *Portfolio {
	c := *p
	c.Positions = p.Positions.Clone()
	if p.LastValuedAt != nil {
		t := *p.LastValuedAt
		c.LastValuedAt = &t
	}
	return &c
}

// CreatePortfolioRequest carries the fields accepted when opening a portfolio.
// CashBalance defaults to InitialAmount when nil.
type CreatePortfolioRequest struct {
	Name          string    `json:"name"`
	InitialAmount float64   `json:"initial_amount"`
	CashBalance   *float64  `json:"cash_balance,omitempty"`
	Positions     Positions `json:"positions,omitempty"`
}

// Normalize trims the name and upper-cases position tickers.
func (r *CreatePortfolioRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	for i := range r.Positions {
		r.Positions[i].Ticker = NormalizeTicker(r.Positions[i].Ticker)
	}
}

// Validate checks the creation rules for a new portfolio.
func (r *CreatePortfolioRequest) Validate() error {
	if r.Name == "" {
		return NewValidationError("name", "is required")
	}
	if len(r.Name) > 128 {
		return NewValidationError("name", "must be at most 128 characters")
	}
	if !isFiniteNonNegative(r.InitialAmount) {
		return NewValidationError("initial_amount", "must be a non-negative number")
	}
	if r.CashBalance != nil && !isFiniteNonNegative(*r.CashBalance) {
		return NewValidationError("cash_balance", "must be a non-negative number")
	}
	return r.Positions.Validate()
}

// UpdatePortfolioRequest edits a portfolio directly. Nil fields are left
// unchanged. InitialAmount is fixed at creation and cannot be edited.
type UpdatePortfolioRequest struct {
	Name        *string    `json:"name,omitempty"`
	CashBalance *float64   `json:"cash_balance,omitempty"`
	Positions   *Positions `json:"positions,omitempty"`
}

// Apply validates the request and merges it into p.
func (r *UpdatePortfolioRequest) Apply(p *Portfolio) error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return NewValidationError("name", "must not be empty")
		}
		if len(name) > 128 {
			return NewValidationError("name", "must be at most 128 characters")
		}
		p.Name = name
	}
	if r.CashBalance != nil {
		if !isFiniteNonNegative(*r.CashBalance) {
			return NewValidationError("cash_balance", "must be a non-negative number")
		}
		p.CashBalance = *r.CashBalance
	}
	if r.Positions != nil {
		positions := r.Positions.Clone()
		for i := range positions {
			positions[i].Ticker = NormalizeTicker(positions[i].Ticker)
		}
		if err := positions.Validate(); err != nil {
			return err
		}
		p.Positions = positions
	}
	return nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
