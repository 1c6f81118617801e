package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseTradeAction(t *testing.T) {
	tests := []struct {
		input   string
		want    TradeAction
		wantErr bool
	}{
		{"BUY", TradeActionBuy, false},
		{"buy", TradeActionBuy, false},
		{" Sell ", TradeActionSell, false},
		{"HOLD", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTradeAction(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTradeAction(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTradeAction(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTradeRequest_Validate(t *testing.T) {
	base := TradeRequest{PortfolioID: "p1", AssetName: "aapl", Action: "buy", Price: 10, Quantity: 1}
	base.Normalize()
	if base.AssetName != "AAPL" {
		t.Errorf("AssetName = %q, want AAPL", base.AssetName)
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	missing := base
	missing.PortfolioID = ""
	if err := missing.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("missing portfolio: got %v", err)
	}

	badAction := base
	badAction.Action = "SHORT"
	if err := badAction.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("bad action: got %v", err)
	}
}

func TestTradeUpdateRequest_Apply(t *testing.T) {
	tr := &Trade{Price: 10, Quantity: 1}
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	req := TradeUpdateRequest{Price: ptr(12.5), Quantity: ptr(int64(4)), TradeDate: &date, Description: ptr("  rebalance ")}
	if err := req.Apply(tr); err != nil {
		t.Fatalf("Apply() = %v", err)
	}
	if tr.Price != 12.5 || tr.Quantity != 4 || !tr.TradeDate.Equal(date) || tr.Description != "rebalance" {
		t.Errorf("unexpected trade after apply: %+v", tr)
	}

	if err := (&TradeUpdateRequest{Quantity: ptr(int64(0))}).Apply(tr); !errors.Is(err, ErrValidation) {
		t.Errorf("zero quantity: got %v", err)
	}
	if err := (&TradeUpdateRequest{Price: ptr(-1.0)}).Apply(tr); !errors.Is(err, ErrValidation) {
		t.Errorf("negative price: got %v", err)
	}
}
