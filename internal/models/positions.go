package models

import (
	"strconv"
	"strings"
)

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Position is a single holding: a ticker and a whole number of shares.
type Position struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

// Positions is an ordered ticker to quantity mapping. Tickers are unique and
// every quantity is positive. Order is the order in which positions were
// first opened and is preserved through storage.
type Positions []Position

// Index returns the position index of ticker, or -1.
func (p Positions) Index(ticker string) int {
	for i := range p {
		if p[i].Ticker == ticker {
			return i
		}
	}
	return -1
}

// Quantity returns the held quantity of ticker.
func (p Positions) Quantity(ticker string) (int64, bool) {
	if i := p.Index(ticker); i >= 0 {
		return p[i].Quantity, true
	}
	return 0, false
}

// Tickers returns the held tickers in order.
func (p Positions) Tickers() []string {
	out := make([]string, len(p))
	for i := range p {
		out[i] = p[i].Ticker
	}
	return out
}

// Clone returns an independent copy.
func (p Positions) Clone() Positions {
	if p == nil {
		return Positions{}
	}
	out := make(Positions, len(p))
	copy(out, p)
	return out
}

// Validate checks the ticker uniqueness and positive quantity invariants.
func (p Positions) Validate() error {
	seen := make(map[string]struct{}, len(p))
	for _, pos := range p {
		if pos.Ticker == "" {
			return NewValidationError("positions", "ticker must not be empty")
		}
		if strings.ContainsAny(pos.Ticker, ", ") {
			return NewValidationError("positions", "ticker %q contains an invalid character", pos.Ticker)
		}
		if pos.Quantity <= 0 {
			return NewValidationError("positions", "quantity for %s must be positive", pos.Ticker)
		}
		if _, ok := seen[pos.Ticker]; ok {
			return NewValidationError("positions", "duplicate ticker %s", pos.Ticker)
		}
		seen[pos.Ticker] = struct{}{}
	}
	return nil
}

// Encode renders positions as the two parallel comma-separated columns
// used by the stores, e.g. ("AAPL,GOOGL", "50,30").
func (p Positions) Encode() (tickers, sizes string) {
	t := make([]string, len(p))
	s := make([]string, len(p))
	for i, pos := range p {
		t[i] = pos.Ticker
		s[i] = strconv.FormatInt(pos.Quantity, 10)
	}
	return strings.Join(t, ","), strings.Join(s, ",")
}

// ParsePositions decodes the stored column pair produced by Encode.
func ParsePositions(tickers, sizes string) (Positions, error) {
	tickers = strings.TrimSpace(tickers)
	sizes = strings.TrimSpace(sizes)
	if tickers == "" && sizes == "" {
		return Positions{}, nil
	}
	t := strings.Split(tickers, ",")
	s := strings.Split(sizes, ",")
	if len(t) != len(s) {
		return nil, NewValidationError("positions", "%d tickers but %d sizes", len(t), len(s))
	}
	out := make(Positions, 0, len(t))
	for i := range t {
		qty, err := strconv.ParseInt(strings.TrimSpace(s[i]), 10, 64)
		if err != nil {
			return nil, NewValidationError("positions_size", "invalid quantity %q", s[i])
		}
		out = append(out, Position{Ticker: NormalizeTicker(t[i]), Quantity: qty})
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
