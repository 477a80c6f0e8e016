// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"labfry/config"
	"labfry/internal/domain/entity"
	domainerrors "labfry/internal/domain/errors"
	"labfry/internal/domain/repository"
	"labfry/internal/domain/service"
	"labfry/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Stored-column lifetimes for the link tokens. The signed token carries the
// same lifetime; the column check is defense in depth against key reuse.
const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager            repository.TransactionManager
	userRepo             repository.UserRepository
	sessionRepo          repository.SessionRepository
	hasher               service.PasswordHasher
	tokenService         service.TokenService
	codeGen              service.CodeGenerator
	mailer               service.Mailer
	sessionTTL           time.Duration
	rememberMeSessionTTL time.Duration
	logger               *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	SessionRepo  repository.SessionRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	CodeGen      service.CodeGenerator
	Mailer       service.Mailer
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	sessionTTL := 24 * time.Hour
	rememberMeTTL := 7 * 24 * time.Hour
	if params.Config != nil && params.Config.Auth != nil {
		if params.Config.Auth.SessionTTL > 0 {
			sessionTTL = params.Config.Auth.SessionTTL
		}
		if params.Config.Auth.RememberMeSessionTTL > 0 {
			rememberMeTTL = params.Config.Auth.RememberMeSessionTTL
		}
	}

	return &authService{
		txManager:            params.TxManager,
		userRepo:             params.UserRepo,
		sessionRepo:          params.SessionRepo,
		hasher:               params.Hasher,
		tokenService:         params.TokenService,
		codeGen:              params.CodeGen,
		mailer:               params.Mailer,
		sessionTTL:           sessionTTL,
		rememberMeSessionTTL: rememberMeTTL,
		logger:               params.Logger,
	}
}

func failure(message string) *usecase.AuthResult {
	return &usecase.AuthResult{Success: false, Message: message}
}

// Register creates a PENDING_VERIFICATION account and sends the verification
// email. The unique email index is the final arbiter against races on the
// pre-check.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthResult, error) {
	srv.logger.Info("Starting registration", slog.String("email", input.Email))

	if _, err := srv.userRepo.FindByEmail(ctx, input.Email); err == nil {
		return failure("User with this email already exists"), nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check existing user")
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	token, err := srv.tokenService.GenerateEmailVerificationToken(input.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification token")
	}
	code, err := srv.codeGen.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification code")
	}

	role := input.Role
	if !role.IsValid() {
		role = entity.RoleUser
	}

	now := time.Now()
	tokenExpiry := now.Add(verificationTokenTTL)
	codeExpiry := srv.codeGen.Expiry()

	user := &entity.User{
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         role,
		Status:       entity.StatusPendingVerification,

		EmailVerificationToken:       &token,
		EmailVerificationTokenExpiry: &tokenExpiry,
		EmailVerificationCode:        &code,
		EmailVerificationCodeExpiry:  &codeExpiry,

		LastSeen: now,
	}

	if err := srv.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			return failure("User with this email already exists"), nil
		}

		return nil, errors.Wrap(err, "failed to create user")
	}

	if err := srv.mailer.SendVerificationEmail(ctx, user.Email, user.FirstName, token, code); err != nil {
		return nil, errors.Wrap(err, "failed to send verification email")
	}

	return &usecase.AuthResult{
		Success: true,
		Message: "Registration successful. Please check your email to verify your account.",
		User:    user,
	}, nil
}

// Login verifies credentials and issues a session. The session ID is minted
// up front so the signed tokens and the persisted row agree from the start.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthResult, error) {
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same wording as the wrong-password branch, resisting enumeration.
			return failure("Invalid email or password"), nil
		}

		return nil, errors.Wrap(err, "failed to find user for login")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		return failure("Invalid email or password"), nil
	}

	if !user.CanLogin() {
		return failure("Account is suspended or deleted"), nil
	}

	ttl := srv.sessionTTL
	if input.RememberMe {
		ttl = srv.rememberMeSessionTTL
	}

	sessionID := uuid.New()
	payload := service.SessionPayload{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
	}

	accessToken, err := srv.tokenService.GenerateAccessToken(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}
	refreshToken, err := srv.tokenService.GenerateRefreshToken(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	session := &entity.Session{
		ID:           sessionID,
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(ttl),
		IsActive:     true,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.SessionRepo().Create(ctx, session); err != nil {
			return err
		}

		return repoFactory.UserRepo().UpdatePresence(ctx, user.ID, true)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}

	user.IsOnline = true
	user.LastSeen = time.Now()

	srv.logger.Info("Login successful",
		slog.String("email", user.Email),
		slog.String("sessionId", sessionID.String()),
	)

	return &usecase.AuthResult{
		Success:      true,
		Message:      "Login successful",
		User:         user,
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// VerifyEmail consumes a verification proof and activates the account.
func (srv *authService) VerifyEmail(ctx context.Context, proof usecase.Proof) (*usecase.AuthResult, error) {
	var user *entity.User

	if token, ok := proof.IsToken(); ok {
		email, err := srv.tokenService.VerifyEmailVerificationToken(token)
		if err != nil {
			return failure("Invalid or expired verification token or code"), nil
		}

		user, err = srv.userRepo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(err, "failed to find user for verification")
		}
		if user == nil || user.EmailVerificationToken == nil || *user.EmailVerificationToken != token {
			return failure("Invalid verification token or code"), nil
		}
	} else if code, email, ok := proof.IsCode(); ok {
		if !srv.codeGen.ValidFormat(code) {
			return failure("Invalid verification code format"), nil
		}

		var err error
		user, err = srv.userRepo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(err, "failed to find user for verification")
		}
		if user == nil || user.EmailVerificationCode == nil || *user.EmailVerificationCode != code {
			return failure("Invalid verification code"), nil
		}
		if srv.codeGen.IsExpired(user.EmailVerificationCodeExpiry) {
			return failure("Verification code has expired"), nil
		}
	} else {
		return failure("Either token or code with email is required"), nil
	}

	if user.EmailVerified {
		return failure("Email is already verified"), nil
	}

	// Token mode: recheck the stored expiry column even though the signature
	// already carries its own lifetime.
	if _, ok := proof.IsToken(); ok {
		if user.EmailVerificationTokenExpiry == nil || time.Now().After(*user.EmailVerificationTokenExpiry) {
			return failure("Verification token has expired"), nil
		}
	}

	user.EmailVerified = true
	user.Status = entity.StatusActive
	user.ClearVerificationState()

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to mark email verified")
	}

	if err := srv.mailer.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
		srv.logger.Warn("Failed to send welcome email",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
	}

	return &usecase.AuthResult{
		Success: true,
		Message: "Email verified successfully",
		User:    user,
	}, nil
}

// ResendVerification regenerates the token and code for an unverified account.
func (srv *authService) ResendVerification(ctx context.Context, email string) (*usecase.AuthResult, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return failure("User not found"), nil
		}

		return nil, errors.Wrap(err, "failed to find user for resend")
	}

	if user.EmailVerified {
		return failure("Email is already verified"), nil
	}

	token, err := srv.tokenService.GenerateEmailVerificationToken(user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification token")
	}
	code, err := srv.codeGen.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification code")
	}

	tokenExpiry := time.Now().Add(verificationTokenTTL)
	codeExpiry := srv.codeGen.Expiry()
	user.EmailVerificationToken = &token
	user.EmailVerificationTokenExpiry = &tokenExpiry
	user.EmailVerificationCode = &code
	user.EmailVerificationCodeExpiry = &codeExpiry

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to store new verification code")
	}

	if err := srv.mailer.SendVerificationEmail(ctx, user.Email, user.FirstName, token, code); err != nil {
		srv.logger.Error("Failed to resend verification email",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)

		return failure("Failed to send verification code"), nil
	}

	return &usecase.AuthResult{
		Success: true,
		Message: "New verification code sent to your email",
	}, nil
}

// ForgotPassword stores a reset token and code and emails them. The response
// never reveals whether the account exists.
func (srv *authService) ForgotPassword(ctx context.Context, email string) (*usecase.AuthResult, error) {
	const neutralMessage = "If an account with this email exists, a password reset link has been sent."

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &usecase.AuthResult{Success: true, Message: neutralMessage}, nil
		}

		return nil, errors.Wrap(err, "failed to find user for password reset")
	}

	token, err := srv.tokenService.GeneratePasswordResetToken(user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate reset token")
	}
	code, err := srv.codeGen.Generate()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate reset code")
	}

	tokenExpiry := time.Now().Add(resetTokenTTL)
	codeExpiry := srv.codeGen.Expiry()
	user.PasswordResetToken = &token
	user.PasswordResetTokenExpiry = &tokenExpiry
	user.PasswordResetCode = &code
	user.PasswordResetCodeExpiry = &codeExpiry

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to store reset token")
	}

	if err := srv.mailer.SendPasswordResetEmail(ctx, user.Email, user.FirstName, token, code); err != nil {
		return nil, errors.Wrap(err, "failed to send password reset email")
	}

	return &usecase.AuthResult{Success: true, Message: neutralMessage}, nil
}

// ResetPassword consumes a reset proof, replaces the password and logs the
// user out everywhere.
func (srv *authService) ResetPassword(ctx context.Context, proof usecase.Proof, newPassword string) (*usecase.AuthResult, error) {
	var user *entity.User

	if token, ok := proof.IsToken(); ok {
		email, err := srv.tokenService.VerifyPasswordResetToken(token)
		if err != nil {
			return failure("Invalid or expired reset token"), nil
		}

		user, err = srv.userRepo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(err, "failed to find user for password reset")
		}
		if user == nil || user.PasswordResetToken == nil || *user.PasswordResetToken != token {
			return failure("Invalid or expired reset token"), nil
		}
		if user.PasswordResetTokenExpiry == nil || time.Now().After(*user.PasswordResetTokenExpiry) {
			return failure("Reset token has expired"), nil
		}
	} else if code, email, ok := proof.IsCode(); ok {
		if !srv.codeGen.ValidFormat(code) {
			return failure("Invalid reset code format"), nil
		}

		var err error
		user, err = srv.userRepo.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(err, "failed to find user for password reset")
		}
		if user == nil || user.PasswordResetCode == nil || *user.PasswordResetCode != code {
			return failure("Invalid reset code"), nil
		}
		if srv.codeGen.IsExpired(user.PasswordResetCodeExpiry) {
			return failure("Reset code has expired"), nil
		}
	} else {
		return failure("Either token or code with email is required"), nil
	}

	passwordHash, err := srv.hasher.Hash(newPassword)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash new password")
	}

	user.PasswordHash = passwordHash
	user.ClearResetState()

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().Update(ctx, user); err != nil {
			return err
		}

		// Log out everywhere: a password change revokes every session.
		return repoFactory.SessionRepo().DeactivateAllForUser(ctx, user.ID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to reset password")
	}

	return &usecase.AuthResult{
		Success: true,
		Message: "Password reset successfully",
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair on the same session.
func (srv *authService) Refresh(ctx context.Context, refreshToken string) (*usecase.AuthResult, error) {
	const invalidMessage = "Invalid or expired refresh token"

	claims, err := srv.tokenService.VerifyRefreshToken(refreshToken)
	if err != nil {
		return failure(invalidMessage), nil
	}

	session, err := srv.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return failure(invalidMessage), nil
		}

		return nil, errors.Wrap(err, "failed to find session for refresh")
	}

	if !session.IsActive || session.RefreshToken != refreshToken || session.Expired(time.Now()) {
		return failure(invalidMessage), nil
	}

	user, err := srv.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return failure(invalidMessage), nil
		}

		return nil, errors.Wrap(err, "failed to find user for refresh")
	}

	payload := service.SessionPayload{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: session.ID,
	}

	newAccessToken, err := srv.tokenService.GenerateAccessToken(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}
	newRefreshToken, err := srv.tokenService.GenerateRefreshToken(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	// Overwrite only the token pair. ExpiresAt stays as set at login.
	if err := srv.sessionRepo.UpdateTokens(ctx, session.ID, newAccessToken, newRefreshToken); err != nil {
		return nil, errors.Wrap(err, "failed to update session tokens")
	}

	return &usecase.AuthResult{
		Success:      true,
		Message:      "Token refreshed successfully",
		User:         user,
		Token:        newAccessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout marks the session inactive. Failures are logged and swallowed so
// the client can always finish its cookie cleanup.
func (srv *authService) Logout(ctx context.Context, sessionID uuid.UUID) (*usecase.AuthResult, error) {
	if err := srv.sessionRepo.Deactivate(ctx, sessionID); err != nil {
		srv.logger.Warn("Failed to deactivate session on logout",
			slog.String("sessionId", sessionID.String()),
			slog.String("error", err.Error()),
		)
	}

	return &usecase.AuthResult{
		Success: true,
		Message: "Logged out successfully",
	}, nil
}

// GetProfile loads a single user by ID.
func (srv *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return srv.userRepo.FindByID(ctx, userID)
}

// UpdateProfile applies a partial profile update.
func (srv *authService) UpdateProfile(ctx context.Context, input *usecase.UpdateProfileInput) (*usecase.AuthResult, error) {
	user, err := srv.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return failure("User not found"), nil
		}

		return nil, errors.Wrap(err, "failed to find user for profile update")
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := srv.userRepo.FindByEmail(ctx, *input.Email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(err, "failed to check email availability")
		}
		if existing != nil && existing.ID != user.ID {
			return failure("Email is already in use"), nil
		}

		user.Email = *input.Email
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update profile")
	}

	return &usecase.AuthResult{
		Success: true,
		Message: "Profile updated successfully",
		User:    user,
	}, nil
}

// UpdateOnlineStatus is fire-and-forget: presence is advisory and a failed
// write must never block the caller.
func (srv *authService) UpdateOnlineStatus(ctx context.Context, userID uuid.UUID, isOnline bool) {
	if err := srv.userRepo.UpdatePresence(ctx, userID, isOnline); err != nil {
		srv.logger.Warn("Failed to update online status",
			slog.String("userId", userID.String()),
			slog.Bool("isOnline", isOnline),
			slog.String("error", err.Error()),
		)
	}
}

// AdminResetPassword forcibly replaces a user's password. Only ADMIN accounts
// may call it; a refusal leaves the target untouched.
func (srv *authService) AdminResetPassword(ctx context.Context, adminID uuid.UUID, targetEmail, newPassword string) (*usecase.AuthResult, error) {
	admin, err := srv.userRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return failure("Unauthorized: Admin access required"), nil
		}

		return nil, errors.Wrap(err, "failed to find acting user")
	}
	if admin.Role != entity.RoleAdmin {
		return failure("Unauthorized: Admin access required"), nil
	}

	target, err := srv.userRepo.FindByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return failure("User not found"), nil
		}

		return nil, errors.Wrap(err, "failed to find target user")
	}

	passwordHash, err := srv.hasher.Hash(newPassword)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash new password")
	}

	target.PasswordHash = passwordHash
	target.ClearResetState()

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().Update(ctx, target); err != nil {
			return err
		}

		return repoFactory.SessionRepo().DeactivateAllForUser(ctx, target.ID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to reset target password")
	}

	srv.logger.Info("Admin password reset",
		slog.String("adminId", adminID.String()),
		slog.String("targetEmail", targetEmail),
	)

	return &usecase.AuthResult{
		Success: true,
		Message: fmt.Sprintf("Password reset successfully for %s", target.Email),
	}, nil
}
