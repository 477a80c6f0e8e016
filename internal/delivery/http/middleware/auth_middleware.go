package middleware

import (
	"strings"
	"time"

	"labfry/internal/domain/entity"
	domainerrors "labfry/internal/domain/errors"
	"labfry/internal/domain/repository"
	"labfry/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserIDFromContext returns the authenticated user ID set by Authenticate.
func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ContextUserID).(uuid.UUID)

	return id, ok
}

// SessionIDFromContext returns the session ID set by Authenticate.
func SessionIDFromContext(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ContextSessionID).(uuid.UUID)

	return id, ok
}

// Context keys set by Authenticate for downstream handlers.
const (
	ContextUserID    = "userID"
	ContextSessionID = "sessionID"
	ContextRole      = "role"
	ContextEmail     = "email"
)

// AuthMiddleware validates access tokens and the session rows behind them.
type AuthMiddleware struct {
	tokenSvc    service.TokenService
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, sessionRepo repository.SessionRepository, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, sessionRepo: sessionRepo, userRepo: userRepo}
}

// extractToken pulls the access token from the Authorization header or,
// failing that, the httpOnly "token" cookie.
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return token
	}

	if cookie, err := c.Cookie("token"); err == nil {
		return cookie.Value
	}

	return ""
}

// Authenticate validates the JWT access token, requires the session behind
// it to be active and unexpired, and requires the account to be ACTIVE.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		if token == "" {
			return domainerrors.ErrTokenMissing
		}

		claims, err := m.tokenSvc.VerifyAccessToken(token)
		if err != nil {
			return domainerrors.ErrTokenInvalid
		}

		ctx := c.Request().Context()

		session, err := m.sessionRepo.FindByID(ctx, claims.SessionID)
		if err != nil || !session.IsActive || session.Expired(time.Now()) {
			return domainerrors.ErrSessionInvalid
		}

		user, err := m.userRepo.FindByID(ctx, claims.UserID)
		if err != nil {
			return domainerrors.ErrSessionInvalid
		}
		if user.Status != entity.StatusActive {
			return domainerrors.ErrAccountNotActive
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextSessionID, claims.SessionID)
		c.Set(ContextRole, user.Role)
		c.Set(ContextEmail, user.Email)

		return next(c)
	}
}

// RequireVerifiedEmail blocks accounts that have not completed email
// verification. It must be used after Authenticate.
func (m *AuthMiddleware) RequireVerifiedEmail(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := UserIDFromContext(c)
		if !ok {
			return domainerrors.ErrAuthRequired
		}

		user, err := m.userRepo.FindByID(c.Request().Context(), userID)
		if err != nil || !user.EmailVerified {
			return domainerrors.ErrEmailNotVerified
		}

		return next(c)
	}
}

// RequireRole restricts a route to a single role. It must be used after
// Authenticate.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(ContextRole).(entity.Role)
			if !ok || role != requiredRole {
				return domainerrors.ErrInsufficientPermissions
			}

			return next(c)
		}
	}
}
