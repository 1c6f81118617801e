package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// UserStore implements interfaces.UserStore using SurrealDB.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: logger,
	}
}

func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	sql := "CREATE type::record('user', $id) CONTENT $user"
	vars := map[string]any{"id": user.UserID, "user": newUserRow(user)}

	if _, err := surrealdb.Query[[]userRow](ctx, s.db, sql, vars); err != nil {
		if isConflictError(err) {
			return fmt.Errorf("username %q: %w", user.Username, interfaces.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	row, err := surrealdb.Select[userRow](ctx, s.db, surrealmodels.NewRecordID("user", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if row == nil || row.UserID == "" {
		return nil, fmt.Errorf("user %s: %w", userID, interfaces.ErrNotFound)
	}
	return row.toModel(), nil
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	rows, err := queryRows[userRow](ctx, s.db,
		"SELECT * FROM user WHERE username = $username LIMIT 1",
		map[string]any{"username": username})
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("user %q: %w", username, interfaces.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

func (s *UserStore) UpdateUser(ctx context.Context, user *models.User) error {
	sql := `UPDATE type::record('user', $id) SET
		first_name = $first_name, last_name = $last_name,
		password_hash = $password_hash, modified_at = $modified_at
		RETURN AFTER`
	vars := map[string]any{
		"id":            user.UserID,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"password_hash": user.PasswordHash,
		"modified_at":   user.ModifiedAt.UTC(),
	}
	rows, err := queryRows[userRow](ctx, s.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("user %s: %w", user.UserID, interfaces.ErrNotFound)
	}
	return nil
}

// DeleteUser removes trades and portfolios before the user record. SurrealDB
// has no foreign keys, so the cascade is explicit.
func (s *UserStore) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}

	vars := map[string]any{"user_id": userID}
	if _, err := surrealdb.Query[any](ctx, s.db, "DELETE trade WHERE user_id = $user_id", vars); err != nil {
		return fmt.Errorf("failed to delete user trades: %w", err)
	}
	if _, err := surrealdb.Query[any](ctx, s.db, "DELETE portfolio WHERE user_id = $user_id", vars); err != nil {
		return fmt.Errorf("failed to delete user portfolios: %w", err)
	}
	if _, err := surrealdb.Delete[userRow](ctx, s.db, surrealmodels.NewRecordID("user", userID)); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Debug().Str("user_id", userID).Msg("User deleted")
	return nil
}

var _ interfaces.UserStore = (*UserStore)(nil)
