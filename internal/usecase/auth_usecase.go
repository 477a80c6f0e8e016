// Package usecase defines the application's business logic interfaces (input ports).
// The delivery layer depends on these interfaces, not on their implementations.
package usecase

import (
	"context"

	"labfry/internal/domain/entity"

	"github.com/google/uuid"
)

// RegisterInput carries the data needed to create a new account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      entity.Role
}

// LoginInput carries the credentials for a login attempt. RememberMe extends
// the absolute session lifetime from the default to the extended window.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// UpdateProfileInput carries a partial profile update. Nil fields are left
// unchanged.
type UpdateProfileInput struct {
	UserID    uuid.UUID
	FirstName *string
	LastName  *string
	Email     *string
}

// AuthResult is the uniform outcome of the orchestrator's operations.
// Business rejections (wrong password, already registered, expired code)
// come back as Success=false with a user-facing Message and a nil error;
// the error return is reserved for infrastructure failures.
type AuthResult struct {
	Success      bool
	Message      string
	User         *entity.User
	Token        string
	RefreshToken string
}

// AuthUsecase defines the authentication and account operations.
type AuthUsecase interface {
	// Register creates a PENDING_VERIFICATION account and sends the
	// verification email carrying both the link token and the 6-digit code.
	Register(ctx context.Context, input *RegisterInput) (*AuthResult, error)

	// Login verifies credentials and issues a session with an access and
	// refresh token pair. PENDING_VERIFICATION accounts may log in;
	// SUSPENDED and DELETED accounts may not.
	Login(ctx context.Context, input *LoginInput) (*AuthResult, error)

	// VerifyEmail consumes a verification proof, activates the account and
	// sends a best-effort welcome email.
	VerifyEmail(ctx context.Context, proof Proof) (*AuthResult, error)

	// ResendVerification regenerates the verification token and code for an
	// unverified account and re-sends the email.
	ResendVerification(ctx context.Context, email string) (*AuthResult, error)

	// ForgotPassword stores a reset token and code and emails them. It
	// reports success whether or not the account exists.
	ForgotPassword(ctx context.Context, email string) (*AuthResult, error)

	// ResetPassword consumes a reset proof, replaces the password and
	// invalidates every session of the user.
	ResetPassword(ctx context.Context, proof Proof, newPassword string) (*AuthResult, error)

	// Refresh exchanges a valid refresh token for a new token pair bound to
	// the same session. The session's absolute expiry is not extended.
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)

	// Logout marks the session inactive. It succeeds even for missing or
	// already-inactive sessions so clients can always clear their cookies.
	Logout(ctx context.Context, sessionID uuid.UUID) (*AuthResult, error)

	// GetProfile loads a single user by ID.
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// UpdateProfile applies a partial profile update. Changing the email
	// fails if another account already owns the target address.
	UpdateProfile(ctx context.Context, input *UpdateProfileInput) (*AuthResult, error)

	// UpdateOnlineStatus writes the presence flag and lastSeen timestamp.
	// It is fire-and-forget: failures are logged and never propagated.
	UpdateOnlineStatus(ctx context.Context, userID uuid.UUID, isOnline bool)

	// AdminResetPassword forcibly replaces a user's password. The acting
	// user must hold the ADMIN role.
	AdminResetPassword(ctx context.Context, adminID uuid.UUID, targetEmail, newPassword string) (*AuthResult, error)
}
