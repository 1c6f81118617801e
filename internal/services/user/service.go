// Package user provides account registration and credential checks
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown username
// or a wrong password. The two cases are not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// bcryptCost matches the cost used by existing password hashes.
const bcryptCost = 10

// Service implements UserService
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new user service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &models.User{
		UserID:       uuid.New().String(),
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.storage.UserStore().CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.UserID).Str("username", u.Username).Msg("User registered")
	return u, nil
}

// Authenticate returns the user whose password matches.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.storage.UserStore().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), truncate(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.storage.UserStore().GetUser(ctx, userID)
}

// UpdateUser edits names and optionally rotates the password.
func (s *Service) UpdateUser(ctx context.Context, userID string, req models.UpdateUserRequest) (*models.User, error) {
	u, err := s.storage.UserStore().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, models.NewValidationError("password", "must not be empty")
		}
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	u.ModifiedAt = s.now().UTC()

	if err := s.storage.UserStore().UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the account with all its portfolios and trades.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.storage.UserStore().DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("User deleted")
	return nil
}

// bcrypt ignores input past 72 bytes and newer versions reject it outright.
func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return b
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Ensure Service implements UserService
var _ interfaces.UserService = (*Service)(nil)
