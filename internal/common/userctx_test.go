package common

import (
	"context"
	"testing"
)

func TestUserContext_RoundTrip(t *testing.T) {
	ctx := context.Background()

	// Absent by default
	if uc := UserContextFromContext(ctx); uc != nil {
		t.Error("Expected nil UserContext from empty context")
	}
	if id := ResolveUserID(ctx); id != "" {
		t.Errorf("Expected empty user id, got %q", id)
	}

	ctx = WithUserContext(ctx, &UserContext{UserID: "user-123", Username: "alice"})

	got := UserContextFromContext(ctx)
	if got == nil {
		t.Fatal("Expected non-nil UserContext")
	}
	if got.Username != "alice" {
		t.Errorf("Expected alice, got %s", got.Username)
	}
	if id := ResolveUserID(ctx); id != "user-123" {
		t.Errorf("Expected user-123, got %s", id)
	}
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if id := CorrelationIDFromContext(ctx); id != "" {
		t.Errorf("Expected empty correlation id, got %q", id)
	}
	ctx = WithCorrelationID(ctx, "abc12345")
	if id := CorrelationIDFromContext(ctx); id != "abc12345" {
		t.Errorf("Expected abc12345, got %q", id)
	}
}
