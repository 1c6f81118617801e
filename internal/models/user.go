package models

import (
	"strings"
	"time"
)

// User represents a registered account. Username is unique across the
// service and never changes after registration.
type User struct {
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	ModifiedAt   time.Time `json:"modified_at"`
}

// RegisterRequest is the body of a registration.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UpdateUserRequest edits a profile. Nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Password  *string `json:"password,omitempty"`
}

// Normalize trims the request's text fields. Passwords are left untouched.
func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// Validate checks the registration fields.
func (r *RegisterRequest) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if r.Password == "" {
		return NewValidationError("password", "is required")
	}
	if r.FirstName == "" {
		return NewValidationError("first_name", "is required")
	}
	if r.LastName == "" {
		return NewValidationError("last_name", "is required")
	}
	return nil
}

// ValidateUsername rejects empty, oversized and control-character names.
func ValidateUsername(username string) error {
	if username == "" {
		return NewValidationError("username", "is required")
	}
	if len(username) > 128 {
		return NewValidationError("username", "must be 128 characters or fewer")
	}
	for _, c := range username {
		if c < 0x20 || c == 0x7f || c == ' ' {
			return NewValidationError("username", "contains invalid characters")
		}
	}
	return nil
}
