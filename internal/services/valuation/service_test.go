package valuation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/ledger"
	"github.com/bobmcallan/folio/internal/services/trade"
	"github.com/bobmcallan/folio/internal/storage/sqlite"
)

type stubProvider struct {
	series map[string][]models.PriceBar
	err    error
	calls  int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) History(_ context.Context, tickers []string, _ models.HistoryQuery) (map[string][]models.PriceBar, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[string][]models.PriceBar)
	for _, t := range tickers {
		if bars, ok := p.series[t]; ok {
			out[t] = bars
		}
	}
	return out, nil
}

type fixture struct {
	store    interfaces.StorageManager
	provider *stubProvider
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.NewManager(context.Background(), common.NewSilentLogger(), filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	provider := &stubProvider{series: map[string][]models.PriceBar{
		"AAPL": {bar("2024-06-13", 150.00), bar("2024-06-14", 152.50)},
	}}
	svc := NewService(store, provider, ledger.NewLocker(), common.NewSilentLogger())
	svc.now = func() time.Time { return fixedNow }
	return &fixture{store: store, provider: provider, svc: svc}
}

func (f *fixture) portfolio(t *testing.T, userID, username string, cash float64, positions models.Positions) *models.Portfolio {
	t.Helper()
	ctx := context.Background()
	created := fixedNow.Add(-24 * time.Hour)
	if _, err := f.store.UserStore().GetUser(ctx, userID); err != nil {
		require.NoError(t, f.store.UserStore().CreateUser(ctx, &models.User{
			UserID: userID, Username: username, PasswordHash: "x", CreatedAt: created, ModifiedAt: created,
		}))
	}
	p := &models.Portfolio{
		PortfolioID:   "p-" + username,
		UserID:        userID,
		Name:          "Growth",
		InitialAmount: 1000,
		LastAmount:    1000,
		CashBalance:   cash,
		Positions:     positions,
		CreatedAt:     created,
		ModifiedAt:    created,
	}
	require.NoError(t, f.store.PortfolioStore().CreatePortfolio(ctx, p))
	return p
}

func TestValue_ComputesCurveAndRecordsLastAmount(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "AAPL", Quantity: 10}})

	v, err := f.svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{Period: "5d"})
	require.NoError(t, err)

	assert.Equal(t, []float64{1500, 1525}, v.Values)
	assert.Equal(t, 1525.0, v.LastValue)
	assert.Equal(t, 1525.0, v.TotalAmount)
	assert.True(t, v.EvolutionDefined)
	assert.Equal(t, 52.5, v.EvolutionPct)
	assert.Equal(t, models.IntervalDaily, v.Interval)
	assert.Equal(t, 1500.0, v.Stats.Min)
	assert.Equal(t, 1525.0, v.Stats.Max)

	stored, err := f.store.PortfolioStore().GetPortfolio(context.Background(), "u1", p.PortfolioID)
	require.NoError(t, err)
	assert.Equal(t, 1525.0, stored.LastAmount)
	require.NotNil(t, stored.LastValuedAt)
	assert.True(t, fixedNow.Equal(*stored.LastValuedAt))
}

func TestValue_CashIncludedInTotal(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 250, models.Positions{{Ticker: "AAPL", Quantity: 10}})

	v, err := f.svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1775.0, v.TotalAmount)
	assert.Equal(t, 77.5, v.EvolutionPct)
}

func TestValue_CashOnlyPortfolioSkipsProvider(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 1000, models.Positions{})

	v, err := f.svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{})
	require.NoError(t, err)
	assert.Empty(t, v.Values)
	assert.Equal(t, 1000.0, v.TotalAmount)
	assert.Equal(t, 0.0, v.EvolutionPct)
	assert.Equal(t, 0, f.provider.calls)
}

func TestValue_MissingTickerReported(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "AAPL", Quantity: 1}, {Ticker: "GHOST", Quantity: 5}})

	v, err := f.svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"GHOST"}, v.MissingTickers)
	assert.Equal(t, 152.5, v.LastValue)
}

func TestValue_NoDataForAnyPosition(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "GHOST", Quantity: 5}})

	_, err := f.svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestValue_ProviderFailureLeavesLastAmount(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "AAPL", Quantity: 10}})
	f.provider.err = errors.New("connection reset")

	_, err := f.svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{})
	var perr *models.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "stub", perr.Provider)

	stored, err := f.store.PortfolioStore().GetPortfolio(context.Background(), "u1", p.PortfolioID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.LastAmount)
	assert.Nil(t, stored.LastValuedAt)
}

func TestValue_OtherUsersPortfolioNotFound(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "AAPL", Quantity: 10}})

	_, err := f.svc.Value(context.Background(), "u2", p.PortfolioID, models.RangeRequest{})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	assert.Equal(t, 0, f.provider.calls)
}

func TestValue_InvalidRange(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "AAPL", Quantity: 10}})

	_, err := f.svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{Period: "forever"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestChart(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "AAPL", Quantity: 10}})

	png, err := f.svc.Chart(context.Background(), "u1", p.PortfolioID, models.RangeRequest{})
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	f.provider.series["AAPL"] = f.provider.series["AAPL"][:1]
	_, err = f.svc.Chart(context.Background(), "u1", p.PortfolioID, models.RangeRequest{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRevalueAll(t *testing.T) {
	f := newFixture(t)
	held := f.portfolio(t, "u1", "alice", 100, models.Positions{{Ticker: "AAPL", Quantity: 2}})
	f.portfolio(t, "u2", "bob", 500, models.Positions{})
	f.portfolio(t, "u3", "carol", 0, models.Positions{{Ticker: "GHOST", Quantity: 1}})

	n, err := f.svc.RevalueAll(context.Background(), "5d")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.store.PortfolioStore().GetPortfolio(context.Background(), "u1", held.PortfolioID)
	require.NoError(t, err)
	assert.Equal(t, 405.0, stored.LastAmount)
}

// failingWriteBack rejects every last-amount update.
type failingWriteBack struct {
	interfaces.StorageManager
}

func (f failingWriteBack) PortfolioStore() interfaces.PortfolioStore {
	return failingLastAmountStore{f.StorageManager.PortfolioStore()}
}

type failingLastAmountStore struct {
	interfaces.PortfolioStore
}

func (failingLastAmountStore) UpdateLastAmount(context.Context, string, string, float64, time.Time) error {
	return errors.New("database is locked")
}

func TestValue_WriteBackFailureIsNotReturned(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 0, models.Positions{{Ticker: "AAPL", Quantity: 10}})

	svc := NewService(failingWriteBack{f.store}, f.provider, ledger.NewLocker(), common.NewSilentLogger())
	v, err := svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{Period: "5d"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1500, 1525}, v.Values)
	assert.Equal(t, 52.5, v.EvolutionPct)

	stored, err := f.store.PortfolioStore().GetPortfolio(context.Background(), "u1", p.PortfolioID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, stored.LastAmount)
}

// blockingProvider parks inside History until released.
type blockingProvider struct {
	inner   *stubProvider
	entered chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Name() string { return "blocking" }

func (p *blockingProvider) History(ctx context.Context, tickers []string, q models.HistoryQuery) (map[string][]models.PriceBar, error) {
	close(p.entered)
	<-p.release
	return p.inner.History(ctx, tickers, q)
}

func TestValue_FetchDoesNotHoldPortfolioLock(t *testing.T) {
	f := newFixture(t)
	p := f.portfolio(t, "u1", "alice", 500, models.Positions{{Ticker: "AAPL", Quantity: 10}})

	locker := ledger.NewLocker()
	provider := &blockingProvider{inner: f.provider, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(f.store, provider, locker, common.NewSilentLogger())
	trades := trade.NewService(f.store, locker, common.NewSilentLogger())

	valued := make(chan error, 1)
	go func() {
		_, err := svc.Value(context.Background(), "u1", p.PortfolioID, models.RangeRequest{Period: "5d"})
		valued <- err
	}()
	<-provider.entered

	traded := make(chan error, 1)
	go func() {
		_, err := trades.RecordTrade(context.Background(), "u1", models.TradeRequest{
			PortfolioID: p.PortfolioID, AssetName: "AAPL", Action: "BUY", Price: 100, Quantity: 1,
		})
		traded <- err
	}()

	select {
	case err := <-traded:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		close(provider.release)
		t.Fatal("trade blocked while valuation was fetching prices")
	}

	close(provider.release)
	require.NoError(t, <-valued)

	stored, err := f.store.PortfolioStore().GetPortfolio(context.Background(), "u1", p.PortfolioID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, stored.CashBalance)
	assert.Equal(t, models.Positions{{Ticker: "AAPL", Quantity: 11}}, stored.Positions)
}
