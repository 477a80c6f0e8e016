package auth

import (
	"testing"

	"labfry/config"
	"labfry/internal/domain/entity"
	"labfry/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) service.TokenService {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"
	cfg.SecretKey.Refresh = "test_refresh_secret_key_very_long_for_testing"
	cfg.SecretKey.EmailVerification = "test_verification_secret_key_for_testing"
	cfg.SecretKey.PasswordReset = "test_reset_secret_key_for_testing"

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc
}

func TestJWTService_SessionTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	payload := service.SessionPayload{
		UserID:    uuid.New(),
		Email:     "test@example.com",
		Role:      entity.RoleAdmin,
		SessionID: uuid.New(),
	}

	accessToken, err := svc.GenerateAccessToken(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)

	refreshToken, err := svc.GenerateRefreshToken(payload)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshToken)

	accessClaims, err := svc.VerifyAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, payload.UserID, accessClaims.UserID)
	assert.Equal(t, payload.Email, accessClaims.Email)
	assert.Equal(t, payload.Role, accessClaims.Role)
	assert.Equal(t, payload.SessionID, accessClaims.SessionID)

	refreshClaims, err := svc.VerifyRefreshToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, payload.SessionID, refreshClaims.SessionID)
}

func TestJWTService_FamilyIsolation(t *testing.T) {
	svc := newTestTokenService(t)

	payload := service.SessionPayload{
		UserID:    uuid.New(),
		Email:     "test@example.com",
		Role:      entity.RoleUser,
		SessionID: uuid.New(),
	}

	accessToken, err := svc.GenerateAccessToken(payload)
	require.NoError(t, err)

	// An access token must not verify as a refresh token: the families are
	// signed with independent secrets.
	_, err = svc.VerifyRefreshToken(accessToken)
	assert.ErrorIs(t, err, service.ErrTokenMalformed)

	verificationToken, err := svc.GenerateEmailVerificationToken("test@example.com")
	require.NoError(t, err)

	_, err = svc.VerifyPasswordResetToken(verificationToken)
	assert.ErrorIs(t, err, service.ErrTokenMalformed)
}

func TestJWTService_EmailTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	verificationToken, err := svc.GenerateEmailVerificationToken("a@x.com")
	require.NoError(t, err)

	email, err := svc.VerifyEmailVerificationToken(verificationToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)

	resetToken, err := svc.GeneratePasswordResetToken("a@x.com")
	require.NoError(t, err)

	email, err = svc.VerifyPasswordResetToken(resetToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", email)
}

func TestJWTService_NormalizedFailures(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.VerifyAccessToken("")
	assert.ErrorIs(t, err, service.ErrTokenMissing)

	_, err = svc.VerifyAccessToken("clearly-not-a-jwt-token-format")
	assert.ErrorIs(t, err, service.ErrTokenMalformed)
}

func TestNewJWTService_RequiresAllSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.SecretKey.Access = "only-one-secret"

	_, err := NewJWTService(cfg)
	assert.Error(t, err)
}
