// Package service defines interfaces for core, stateless domain logic.
package service

import (
	"errors"
	"time"

	"labfry/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failures are normalized to this small fixed set so callers can
// produce specific user-facing messages without leaking library error text.
var (
	// ErrTokenExpired is returned when a token's signature is valid but its lifetime has passed.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenMalformed is returned for tokens that fail parsing or signature checks.
	ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")
	// ErrTokenMissing is returned when no token was supplied at all.
	ErrTokenMissing = errors.New("token is missing")
)

// SessionPayload is the claim set embedded in access and refresh tokens.
// SessionID maps the token back to exactly one session row.
type SessionPayload struct {
	UserID    uuid.UUID
	Email     string
	Role      entity.Role
	SessionID uuid.UUID
}

// SessionClaims are the decoded claims of an access or refresh token.
type SessionClaims struct {
	UserID    uuid.UUID   `json:"userId"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	SessionID uuid.UUID   `json:"sessionId"`
	jwt.RegisteredClaims
}

// EmailClaims are the decoded claims of an email-verification or
// password-reset token. These single-purpose tokens carry only the email.
type EmailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the four token families. Each family uses
// an independent secret so that leakage or rotation of one does not
// compromise the others.
type TokenService interface {
	// GenerateAccessToken creates a short-lived access token (15 minutes).
	GenerateAccessToken(payload SessionPayload) (string, error)

	// GenerateRefreshToken creates a longer-lived refresh token (7 days).
	GenerateRefreshToken(payload SessionPayload) (string, error)

	// VerifyAccessToken validates an access token and returns its claims.
	// Fails with ErrTokenExpired, ErrTokenMalformed or ErrTokenMissing.
	VerifyAccessToken(token string) (*SessionClaims, error)

	// VerifyRefreshToken validates a refresh token and returns its claims.
	VerifyRefreshToken(token string) (*SessionClaims, error)

	// GenerateEmailVerificationToken creates a single-purpose token (24 hours)
	// for the email verification link.
	GenerateEmailVerificationToken(email string) (string, error)

	// VerifyEmailVerificationToken validates a verification token and returns
	// the email it was issued for.
	VerifyEmailVerificationToken(token string) (string, error)

	// GeneratePasswordResetToken creates a single-purpose token (1 hour)
	// for the password reset link.
	GeneratePasswordResetToken(email string) (string, error)

	// VerifyPasswordResetToken validates a reset token and returns the email
	// it was issued for.
	VerifyPasswordResetToken(token string) (string, error)

	// AccessTokenTTL returns the configured access token lifetime.
	AccessTokenTTL() time.Duration

	// RefreshTokenTTL returns the configured refresh token lifetime.
	RefreshTokenTTL() time.Duration
}
