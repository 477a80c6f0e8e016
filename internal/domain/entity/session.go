// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one authorized login. Its ID is embedded in the signed
// token payload, so any token maps back to exactly one session row.
//
// The token pair stored here is always the currently valid pair: a refresh
// overwrites both values in place, implicitly invalidating the stale pair.
// ExpiresAt is fixed at login time and is never extended by refreshes.
// Sessions are soft-invalidated (IsActive=false) and never deleted.
type Session struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Token        string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Expired reports whether the session's absolute lifetime has passed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
