package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), common.NewSilentLogger(), filepath.Join(t.TempDir(), "folio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func seedUser(t *testing.T, m *Manager, username string) *models.User {
	t.Helper()
	u := &models.User{
		UserID:       uuid.New().String(),
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now(),
		ModifiedAt:   now(),
	}
	require.NoError(t, m.UserStore().CreateUser(context.Background(), u))
	return u
}

func seedPortfolio(t *testing.T, m *Manager, userID string, positions models.Positions) *models.Portfolio {
	t.Helper()
	p := &models.Portfolio{
		PortfolioID:   uuid.New().String(),
		UserID:        userID,
		Name:          "Growth",
		InitialAmount: 1000,
		LastAmount:    1000,
		CashBalance:   1000,
		Positions:     positions,
		CreatedAt:     now(),
		ModifiedAt:    now(),
	}
	require.NoError(t, m.PortfolioStore().CreatePortfolio(context.Background(), p))
	return p
}
