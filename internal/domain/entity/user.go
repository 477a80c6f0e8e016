// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a single account.
// Credential material (the bcrypt hash and the pending verification/reset
// token and code columns) lives on the user row itself and is never
// serialized into API responses.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`

	Role   Role          `json:"role"`
	Status AccountStatus `json:"status"`

	// Email verification state. Token and code are independent proofs of the
	// same claim: the token travels in a link (24h), the code in the mail body (15m).
	EmailVerified                bool       `json:"emailVerified"`
	EmailVerificationToken       *string    `json:"-"`
	EmailVerificationTokenExpiry *time.Time `json:"-"`
	EmailVerificationCode        *string    `json:"-"`
	EmailVerificationCodeExpiry  *time.Time `json:"-"`

	// Password reset state, same dual token/code shape (1h / 15m).
	PasswordResetToken       *string    `json:"-"`
	PasswordResetTokenExpiry *time.Time `json:"-"`
	PasswordResetCode        *string    `json:"-"`
	PasswordResetCodeExpiry  *time.Time `json:"-"`

	// Presence is best-effort: mutated by login, logout, explicit status
	// updates and socket connect/disconnect.
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClearVerificationState drops all four email-verification columns.
// Called once verification succeeds so a consumed proof cannot be replayed.
func (u *User) ClearVerificationState() {
	u.EmailVerificationToken = nil
	u.EmailVerificationTokenExpiry = nil
	u.EmailVerificationCode = nil
	u.EmailVerificationCodeExpiry = nil
}

// ClearResetState drops all four password-reset columns.
func (u *User) ClearResetState() {
	u.PasswordResetToken = nil
	u.PasswordResetTokenExpiry = nil
	u.PasswordResetCode = nil
	u.PasswordResetCodeExpiry = nil
}

// CanLogin reports whether the account status permits logging in.
// PENDING_VERIFICATION users may log in; SUSPENDED and DELETED may not.
func (u *User) CanLogin() bool {
	return u.Status == StatusActive || u.Status == StatusPendingVerification
}
