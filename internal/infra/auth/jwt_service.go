// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"labfry/config"
	"labfry/internal/domain/service"
)

const (
	accessTTL       = 15 * time.Minute
	refreshTTL      = 7 * 24 * time.Hour
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

// jwtService implements TokenService using HS256 JWTs. Each of the four token
// families is signed with its own secret.
type jwtService struct {
	accessSecret       string
	refreshSecret      string
	verificationSecret string
	resetSecret        string
}

// NewJWTService is the constructor for jwtService.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	keys := cfg.SecretKey
	if keys.Access == "" || keys.Refresh == "" || keys.EmailVerification == "" || keys.PasswordReset == "" {
		return nil, errors.New("all four jwt secrets must be provided")
	}

	return &jwtService{
		accessSecret:       keys.Access,
		refreshSecret:      keys.Refresh,
		verificationSecret: keys.EmailVerification,
		resetSecret:        keys.PasswordReset,
	}, nil
}

// GenerateAccessToken creates a short-lived access token carrying the session payload.
func (s *jwtService) GenerateAccessToken(payload service.SessionPayload) (string, error) {
	return s.signSessionToken(payload, accessTTL, s.accessSecret)
}

// GenerateRefreshToken creates a refresh token carrying the same payload.
func (s *jwtService) GenerateRefreshToken(payload service.SessionPayload) (string, error) {
	return s.signSessionToken(payload, refreshTTL, s.refreshSecret)
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *jwtService) VerifyAccessToken(token string) (*service.SessionClaims, error) {
	return s.parseSessionToken(token, s.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (s *jwtService) VerifyRefreshToken(token string) (*service.SessionClaims, error) {
	return s.parseSessionToken(token, s.refreshSecret)
}

// GenerateEmailVerificationToken creates the 24-hour verification link token.
func (s *jwtService) GenerateEmailVerificationToken(email string) (string, error) {
	return s.signEmailToken(email, verificationTTL, s.verificationSecret)
}

// VerifyEmailVerificationToken validates a verification token and returns its email.
func (s *jwtService) VerifyEmailVerificationToken(token string) (string, error) {
	return s.parseEmailToken(token, s.verificationSecret)
}

// GeneratePasswordResetToken creates the 1-hour reset link token.
func (s *jwtService) GeneratePasswordResetToken(email string) (string, error) {
	return s.signEmailToken(email, resetTTL, s.resetSecret)
}

// VerifyPasswordResetToken validates a reset token and returns its email.
func (s *jwtService) VerifyPasswordResetToken(token string) (string, error) {
	return s.parseEmailToken(token, s.resetSecret)
}

// AccessTokenTTL returns the access token lifetime.
func (s *jwtService) AccessTokenTTL() time.Duration {
	return accessTTL
}

// RefreshTokenTTL returns the refresh token lifetime.
func (s *jwtService) RefreshTokenTTL() time.Duration {
	return refreshTTL
}

func (s *jwtService) signSessionToken(payload service.SessionPayload, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := &service.SessionClaims{
		UserID:    payload.UserID,
		Email:     payload.Email,
		Role:      payload.Role,
		SessionID: payload.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}

	return signed, nil
}

func (s *jwtService) parseSessionToken(tokenString, secret string) (*service.SessionClaims, error) {
	claims := &service.SessionClaims{}
	if err := s.parse(tokenString, secret, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func (s *jwtService) signEmailToken(email string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := &service.EmailClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign email token")
	}

	return signed, nil
}

func (s *jwtService) parseEmailToken(tokenString, secret string) (string, error) {
	claims := &service.EmailClaims{}
	if err := s.parse(tokenString, secret, claims); err != nil {
		return "", err
	}

	return claims.Email, nil
}

// parse normalizes verification failures to the fixed service error set so
// callers never see library-internal error text.
func (s *jwtService) parse(tokenString, secret string, claims jwt.Claims) error {
	if tokenString == "" {
		return service.ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return service.ErrTokenExpired
		}

		return service.ErrTokenMalformed
	}
	if !token.Valid {
		return service.ErrTokenMalformed
	}

	return nil
}
