package models

import (
	"errors"
	"math"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestCreatePortfolioRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreatePortfolioRequest
		wantErr bool
	}{
		{"valid", CreatePortfolioRequest{Name: "Growth", InitialAmount: 1000}, false},
		{"zero initial", CreatePortfolioRequest{Name: "Empty", InitialAmount: 0}, false},
		{"with positions", CreatePortfolioRequest{Name: "P", InitialAmount: 10, Positions: Positions{{Ticker: "AAPL", Quantity: 1}}}, false},
		{"missing name", CreatePortfolioRequest{InitialAmount: 1000}, true},
		{"negative initial", CreatePortfolioRequest{Name: "N", InitialAmount: -1}, true},
		{"nan initial", CreatePortfolioRequest{Name: "N", InitialAmount: math.NaN()}, true},
		{"negative cash", CreatePortfolioRequest{Name: "N", InitialAmount: 1, CashBalance: ptr(-0.01)}, true},
		{"zero quantity", CreatePortfolioRequest{Name: "N", Positions: Positions{{Ticker: "AAPL", Quantity: 0}}}, true},
		{"duplicate ticker", CreatePortfolioRequest{Name: "N", Positions: Positions{{Ticker: "AAPL", Quantity: 1}, {Ticker: "AAPL", Quantity: 2}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			err := tt.req.Validate()
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() = %v, want validation error", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestCreatePortfolioRequest_NormalizeCatchesCaseDuplicates(t *testing.T) {
	req := CreatePortfolioRequest{Name: " P ", Positions: Positions{{Ticker: "aapl", Quantity: 1}, {Ticker: "AAPL", Quantity: 2}}}
	req.Normalize()
	if req.Name != "P" {
		t.Errorf("Name = %q, want %q", req.Name, "P")
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected duplicate ticker error")
	}
}

func TestUpdatePortfolioRequest_Apply(t *testing.T) {
	p := &Portfolio{Name: "Old", CashBalance: 10, Positions: Positions{{Ticker: "AAPL", Quantity: 1}}}
	req := UpdatePortfolioRequest{
		Name:        ptr("New"),
		CashBalance: ptr(25.5),
		Positions:   &Positions{{Ticker: "msft", Quantity: 3}},
	}
	if err := req.Apply(p); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if p.Name != "New" || p.CashBalance != 25.5 {
		t.Errorf("got name=%q cash=%v", p.Name, p.CashBalance)
	}
	if len(p.Positions) != 1 || p.Positions[0].Ticker != "MSFT" {
		t.Errorf("positions = %+v", p.Positions)
	}

	bad := UpdatePortfolioRequest{CashBalance: ptr(-1.0)}
	if err := bad.Apply(p); !errors.Is(err, ErrValidation) {
		t.Errorf("negative cash: got %v, want validation error", err)
	}
}

func TestPortfolio_CloneIsDeep(t *testing.T) {
	p := &Portfolio{Positions: Positions{{Ticker: "AAPL", Quantity: 1}}}
	c := p.Clone()
	c.Positions[0].Quantity = 42
	if p.Positions[0].Quantity != 1 {
		t.Error("Clone shares positions backing array")
	}
}
