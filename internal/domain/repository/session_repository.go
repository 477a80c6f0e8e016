// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"labfry/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for session persistence.
var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRepository defines the operations for session persistence.
// Sessions are soft-invalidated only; no delete operation exists on purpose.
type SessionRepository interface {
	// Create persists a new session with its final token pair.
	Create(ctx context.Context, session *entity.Session) error

	// FindByID retrieves a session by its unique ID regardless of state.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error)

	// UpdateTokens overwrites the stored token pair of a session in place.
	// ExpiresAt is deliberately left untouched: the absolute session lifetime
	// is fixed at login time regardless of refresh frequency.
	UpdateTokens(ctx context.Context, id uuid.UUID, token, refreshToken string) error

	// Deactivate marks a single session inactive. Missing or already-inactive
	// sessions are not an error.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// DeactivateAllForUser marks every session of a user inactive.
	// Used for the "log out everywhere" behavior on password resets.
	DeactivateAllForUser(ctx context.Context, userID uuid.UUID) error
}
