// Package ledger applies trades to a portfolio's cash and positions.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/folio/internal/models"
)

// Rejection reasons. Callers match them with errors.Is.
var (
	ErrInvalidTrade       = errors.New("invalid quantity or price")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrPositionNotHeld    = errors.New("position not held")
)

// TradeRequest is one proposed trade against a ledger.
type TradeRequest struct {
	Action   models.TradeAction
	Ticker   string
	Quantity int64
	Price    float64
}

// Reconcile applies req to l and returns the resulting ledger. l is never
// modified; on rejection the returned ledger is the zero value.
func Reconcile(l models.Ledger, req TradeRequest) (models.Ledger, error) {
	ticker := models.NormalizeTicker(req.Ticker)
	if ticker == "" {
		return models.Ledger{}, fmt.Errorf("%w: ticker is required", ErrInvalidTrade)
	}
	if req.Quantity <= 0 {
		return models.Ledger{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidTrade, req.Quantity)
	}
	if math.IsNaN(req.Price) || math.IsInf(req.Price, 0) || req.Price <= 0 {
		return models.Ledger{}, fmt.Errorf("%w: price must be positive, got %v", ErrInvalidTrade, req.Price)
	}

	cash := decimal.NewFromFloat(l.CashBalance)
	amount := decimal.NewFromFloat(req.Price).Mul(decimal.NewFromInt(req.Quantity))
	positions := l.Positions.Clone()

	switch req.Action {
	case models.TradeActionBuy:
		if cash.LessThan(amount) {
			return models.Ledger{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientCash, amount.StringFixed(2), cash.StringFixed(2))
		}
		if i := positions.Index(ticker); i >= 0 {
			if positions[i].Quantity > math.MaxInt64-req.Quantity {
				return models.Ledger{}, fmt.Errorf("%w: position in %s would exceed %d shares", ErrInvalidTrade, ticker, int64(math.MaxInt64))
			}
			positions[i].Quantity += req.Quantity
		} else {
			positions = append(positions, models.Position{Ticker: ticker, Quantity: req.Quantity})
		}
		cash = cash.Sub(amount)

	case models.TradeActionSell:
		i := positions.Index(ticker)
		if i < 0 {
			return models.Ledger{}, fmt.Errorf("%w: %s", ErrPositionNotHeld, ticker)
		}
		if positions[i].Quantity < req.Quantity {
			return models.Ledger{}, fmt.Errorf("%w: hold %d %s, selling %d", ErrInsufficientShares, positions[i].Quantity, ticker, req.Quantity)
		}
		positions[i].Quantity -= req.Quantity
		if positions[i].Quantity == 0 {
			positions = append(positions[:i], positions[i+1:]...)
		}
		cash = cash.Add(amount)

	default:
		return models.Ledger{}, fmt.Errorf("%w: unknown action %q", ErrInvalidTrade, req.Action)
	}

	return models.Ledger{CashBalance: cash.InexactFloat64(), Positions: positions}, nil
}

// RejectionCode returns the stable code for a ledger rejection, or "" when
// err is not one.
func RejectionCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientCash):
		return "insufficient_cash"
	case errors.Is(err, ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, ErrPositionNotHeld):
		return "position_not_held"
	case errors.Is(err, ErrInvalidTrade):
		return "invalid_trade"
	}
	return ""
}
