package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

func TestSymbol(t *testing.T) {
	c := NewClient("k")
	tests := map[string]string{
		"aapl":    "AAPL.US",
		"BHP.AX":  "BHP.AU",
		"VOD.L":   "VOD.LSE",
		"BHP.AU":  "BHP.AU",
		"SHOP.TO": "SHOP.TO",
	}
	for in, want := range tests {
		if got := c.Symbol(in); got != want {
			t.Errorf("Symbol(%q) = %q, want %q", in, got, want)
		}
	}

	au := NewClient("k", WithExchange("au"))
	if got := au.Symbol("CBA"); got != "CBA.AU" {
		t.Errorf("Symbol with AU exchange = %q", got)
	}
}

func TestGetEOD_ParsesStringAndNullFields(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2025-03-27","open":"42.10","high":43.5,"low":41.8,"close":"43.25","adjusted_close":43.25,"volume":"5000000"},
			{"date":"2025-03-28","open":null,"high":null,"low":null,"close":null,"adjusted_close":null,"volume":0}
		]`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bars, err := client.GetEOD(context.Background(), "BHP.AX", WithDateRange(from, time.Time{}), WithPeriod("w"))
	if err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}

	if gotPath != "/eod/BHP.AU" {
		t.Errorf("path = %q, want /eod/BHP.AU", gotPath)
	}
	for _, want := range []string{"from=2025-03-01", "period=w", "api_token=test-key", "order=a"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if strings.Contains(gotQuery, "to=") {
		t.Errorf("query %q should not carry an open upper bound", gotQuery)
	}

	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Close == nil || *bars[0].Close != 43.25 {
		t.Errorf("close = %v, want 43.25", bars[0].Close)
	}
	if bars[0].Open == nil || *bars[0].Open != 42.10 {
		t.Errorf("open = %v, want 42.10", bars[0].Open)
	}
	if bars[0].Volume != 5000000 {
		t.Errorf("volume = %d", bars[0].Volume)
	}
	if bars[1].Close != nil {
		t.Errorf("null close should be nil, got %v", *bars[1].Close)
	}
}

func TestGetEOD_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Ticker Not Found.", http.StatusNotFound)
	}))
	defer srv.Close()

	bars, err := NewClient("k", WithBaseURL(srv.URL)).GetEOD(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected no bars, got %d", len(bars))
	}
}

func TestHistory_BatchAndProviderError(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = true
		mu.Unlock()
		switch r.URL.Path {
		case "/eod/AAPL.US":
			w.Write([]byte(`[{"date":"2025-01-02","close":150}]`))
		case "/eod/MSFT.US":
			w.Write([]byte(`[{"date":"2025-01-02","close":400}]`))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithConcurrency(2))
	q := models.HistoryQuery{Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Interval: models.IntervalDaily}
	out, err := client.History(context.Background(), []string{"aapl", "MSFT", "ZZZZ"}, q)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 tickers, got %d: %v", len(out), out)
	}
	if *out["AAPL"][0].Close != 150 {
		t.Errorf("AAPL close = %v", *out["AAPL"][0].Close)
	}
	if !seen["/eod/ZZZZ.US"] {
		t.Error("expected ZZZZ to be requested")
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer failing.Close()

	_, err = NewClient("k", WithBaseURL(failing.URL)).History(context.Background(), []string{"AAPL"}, q)
	var perr *models.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected wrapped APIError 502, got %v", err)
	}
}
