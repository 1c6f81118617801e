package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// UserStore implements interfaces.UserStore.
type UserStore struct {
	db     *sql.DB
	logger *common.Logger
}

// NewUserStore creates a user store over db.
func NewUserStore(db *sql.DB, logger *common.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

const userColumns = `user_id, username, first_name, last_name, password_hash, created_at, modified_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var created, modified int64
	if err := row.Scan(&u.UserID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &created, &modified); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(created)
	u.ModifiedAt = fromMillis(modified)
	return &u, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.UserID, user.Username, user.FirstName, user.LastName, user.PasswordHash,
		toMillis(user.CreatedAt), toMillis(user.ModifiedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Username, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, interfaces.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, password_hash = ?, modified_at = ? WHERE user_id = ?`,
		user.FirstName, user.LastName, user.PasswordHash, toMillis(user.ModifiedAt), user.UserID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(res, "user", user.UserID)
}

// DeleteUser relies on ON DELETE CASCADE for portfolios and their trades.
func (s *UserStore) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user trades: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := requireRow(res, "user", userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	s.logger.Debug().Str("user_id", userID).Msg("User deleted")
	return nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, interfaces.ErrNotFound)
	}
	return nil
}
