package portfolio

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/ledger"
	"github.com/bobmcallan/folio/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.NewManager(ctx, common.NewSilentLogger(), filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, id := range []string{"u1", "u2"} {
		require.NoError(t, store.UserStore().CreateUser(ctx, &models.User{
			UserID: id, Username: id, PasswordHash: "x", CreatedAt: fixedNow, ModifiedAt: fixedNow,
		}))
	}

	s := NewService(store, ledger.NewLocker(), common.NewSilentLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func ptr[T any](v T) *T { return &v }

func TestCreatePortfolio_Defaults(t *testing.T) {
	s := newTestService(t)

	p, err := s.CreatePortfolio(context.Background(), "u1", models.CreatePortfolioRequest{
		Name: "  Retirement ", InitialAmount: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, "Retirement", p.Name)
	assert.Equal(t, 1000.0, p.CashBalance)
	assert.Equal(t, 1000.0, p.LastAmount)
	assert.Empty(t, p.Positions)
	assert.Equal(t, fixedNow, p.CreatedAt)

	got, err := s.GetPortfolio(context.Background(), "u1", p.PortfolioID)
	require.NoError(t, err)
	assert.Equal(t, p.PortfolioID, got.PortfolioID)
	assert.Equal(t, models.Positions{}, got.Positions)
}

func TestCreatePortfolio_ExplicitCashAndPositions(t *testing.T) {
	s := newTestService(t)

	p, err := s.CreatePortfolio(context.Background(), "u1", models.CreatePortfolioRequest{
		Name:          "Imported",
		InitialAmount: 5000,
		CashBalance:   ptr(120.5),
		Positions:     models.Positions{{Ticker: "aapl", Quantity: 10}, {Ticker: "msft", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 120.5, p.CashBalance)
	assert.Equal(t, models.Positions{{Ticker: "AAPL", Quantity: 10}, {Ticker: "MSFT", Quantity: 2}}, p.Positions)
}

func TestCreatePortfolio_Validation(t *testing.T) {
	s := newTestService(t)
	tests := []struct {
		name string
		req  models.CreatePortfolioRequest
	}{
		{"empty name", models.CreatePortfolioRequest{Name: " ", InitialAmount: 1}},
		{"negative initial", models.CreatePortfolioRequest{Name: "x", InitialAmount: -1}},
		{"negative cash", models.CreatePortfolioRequest{Name: "x", CashBalance: ptr(-5.0)}},
		{"duplicate ticker", models.CreatePortfolioRequest{Name: "x", Positions: models.Positions{{Ticker: "AAPL", Quantity: 1}, {Ticker: "aapl", Quantity: 2}}}},
		{"zero quantity", models.CreatePortfolioRequest{Name: "x", Positions: models.Positions{{Ticker: "AAPL", Quantity: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreatePortfolio(context.Background(), "u1", tt.req)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestListPortfolios_ScopedToUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, err := s.CreatePortfolio(ctx, "u1", models.CreatePortfolioRequest{Name: "A"})
	require.NoError(t, err)
	_, err = s.CreatePortfolio(ctx, "u1", models.CreatePortfolioRequest{Name: "B"})
	require.NoError(t, err)
	_, err = s.CreatePortfolio(ctx, "u2", models.CreatePortfolioRequest{Name: "C"})
	require.NoError(t, err)

	list, err := s.ListPortfolios(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUpdatePortfolio(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, err := s.CreatePortfolio(ctx, "u1", models.CreatePortfolioRequest{Name: "A", InitialAmount: 100})
	require.NoError(t, err)

	positions := models.Positions{{Ticker: "bhp.ax", Quantity: 4}}
	got, err := s.UpdatePortfolio(ctx, "u1", p.PortfolioID, models.UpdatePortfolioRequest{
		Name: ptr("Renamed"), CashBalance: ptr(42.0), Positions: &positions,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 42.0, got.CashBalance)
	assert.Equal(t, models.Positions{{Ticker: "BHP.AX", Quantity: 4}}, got.Positions)
	assert.Equal(t, 100.0, got.InitialAmount)

	_, err = s.UpdatePortfolio(ctx, "u2", p.PortfolioID, models.UpdatePortfolioRequest{Name: ptr("Stolen")})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	_, err = s.UpdatePortfolio(ctx, "u1", p.PortfolioID, models.UpdatePortfolioRequest{CashBalance: ptr(-1.0)})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeletePortfolio(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, err := s.CreatePortfolio(ctx, "u1", models.CreatePortfolioRequest{Name: "A"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeletePortfolio(ctx, "u2", p.PortfolioID), interfaces.ErrNotFound)
	require.NoError(t, s.DeletePortfolio(ctx, "u1", p.PortfolioID))
	_, err = s.GetPortfolio(ctx, "u1", p.PortfolioID)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
