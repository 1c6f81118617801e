package surrealdb

import (
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// userRow is the DB-level representation of a user. models.User hides the
// password hash from JSON, and the driver honours json tags.
type userRow struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

func newUserRow(u *models.User) userRow {
	return userRow{
		UserID:       u.UserID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		ModifiedAt:   u.ModifiedAt.UTC(),
	}
}

func (r userRow) toModel() *models.User {
	return &models.User{
		UserID:       r.UserID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		ModifiedAt:   r.ModifiedAt.UTC(),
	}
}

// portfolioRow keeps positions in the same parallel comma-separated form the
// SQLite schema uses.
type portfolioRow struct {
	PortfolioID   string     `json:"portfolio_id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	InitialAmount float64    `json:"initial_amount"`
	LastAmount    float64    `json:"last_amount"`
	CashBalance   float64    `json:"cash_balance"`
	Positions     string     `json:"positions"`
	PositionsSize string     `json:"positions_size"`
	LastValuedAt  *time.Time `json:"last_valued_at"`
	CreatedAt     time.Time  `json:"created_at"`
	ModifiedAt    time.Time  `json:"modified_at"`
}

func newPortfolioRow(p *models.Portfolio) portfolioRow {
	tickers, sizes := p.Positions.Encode()
	row := portfolioRow{
		PortfolioID:   p.PortfolioID,
		UserID:        p.UserID,
		Name:          p.Name,
		InitialAmount: p.InitialAmount,
		LastAmount:    p.LastAmount,
		CashBalance:   p.CashBalance,
		Positions:     tickers,
		PositionsSize: sizes,
		CreatedAt:     p.CreatedAt.UTC(),
		ModifiedAt:    p.ModifiedAt.UTC(),
	}
	if p.LastValuedAt != nil {
		at := p.LastValuedAt.UTC()
		row.LastValuedAt = &at
	}
	return row
}

func (r portfolioRow) toModel() (*models.Portfolio, error) {
	positions, err := models.ParsePositions(r.Positions, r.PositionsSize)
	if err != nil {
		return nil, err
	}
	p := &models.Portfolio{
		PortfolioID:   r.PortfolioID,
		UserID:        r.UserID,
		Name:          r.Name,
		InitialAmount: r.InitialAmount,
		LastAmount:    r.LastAmount,
		CashBalance:   r.CashBalance,
		Positions:     positions,
		CreatedAt:     r.CreatedAt.UTC(),
		ModifiedAt:    r.ModifiedAt.UTC(),
	}
	if r.LastValuedAt != nil {
		at := r.LastValuedAt.UTC()
		p.LastValuedAt = &at
	}
	return p, nil
}

type tradeRow struct {
	TradeID     string    `json:"trade_id"`
	PortfolioID string    `json:"portfolio_id"`
	UserID      string    `json:"user_id"`
	AssetName   string    `json:"asset_name"`
	Action      string    `json:"action"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	TradeDate   time.Time `json:"trade_date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func newTradeRow(t *models.Trade) tradeRow {
	return tradeRow{
		TradeID:     t.TradeID,
		PortfolioID: t.PortfolioID,
		UserID:      t.UserID,
		AssetName:   t.AssetName,
		Action:      string(t.Action),
		Price:       t.Price,
		Quantity:    t.Quantity,
		TradeDate:   t.TradeDate.UTC(),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC(),
	}
}

func (r tradeRow) toModel() *models.Trade {
	return &models.Trade{
		TradeID:     r.TradeID,
		PortfolioID: r.PortfolioID,
		UserID:      r.UserID,
		AssetName:   r.AssetName,
		Action:      models.TradeAction(r.Action),
		Price:       r.Price,
		Quantity:    r.Quantity,
		TradeDate:   r.TradeDate.UTC(),
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}
