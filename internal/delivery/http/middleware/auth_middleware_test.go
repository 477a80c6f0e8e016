package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labfry/internal/domain/entity"
	domainerrors "labfry/internal/domain/errors"
	"labfry/internal/domain/repository"
	"labfry/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTokenService struct {
	claims map[string]*service.SessionClaims
}

func (s *fakeTokenService) VerifyAccessToken(token string) (*service.SessionClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}

	return nil, service.ErrTokenMalformed
}

func (s *fakeTokenService) GenerateAccessToken(service.SessionPayload) (string, error) {
	return "", nil
}
func (s *fakeTokenService) GenerateRefreshToken(service.SessionPayload) (string, error) {
	return "", nil
}
func (s *fakeTokenService) VerifyRefreshToken(string) (*service.SessionClaims, error) {
	return nil, service.ErrTokenMalformed
}
func (s *fakeTokenService) GenerateEmailVerificationToken(string) (string, error) { return "", nil }
func (s *fakeTokenService) VerifyEmailVerificationToken(string) (string, error)   { return "", nil }
func (s *fakeTokenService) GeneratePasswordResetToken(string) (string, error)     { return "", nil }
func (s *fakeTokenService) VerifyPasswordResetToken(string) (string, error)       { return "", nil }
func (s *fakeTokenService) AccessTokenTTL() time.Duration                         { return 15 * time.Minute }
func (s *fakeTokenService) RefreshTokenTTL() time.Duration                        { return 7 * 24 * time.Hour }

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*entity.Session
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.Session) error { return nil }

func (r *fakeSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	if session, ok := r.sessions[id]; ok {
		return session, nil
	}

	return nil, repository.ErrSessionNotFound
}

func (r *fakeSessionRepo) UpdateTokens(ctx context.Context, id uuid.UUID, token, refreshToken string) error {
	return nil
}
func (r *fakeSessionRepo) Deactivate(ctx context.Context, id uuid.UUID) error           { return nil }
func (r *fakeSessionRepo) DeactivateAllForUser(ctx context.Context, id uuid.UUID) error { return nil }

type fakeUserRepo struct {
	users map[uuid.UUID]*entity.User
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, repository.ErrUserNotFound
}
func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (r *fakeUserRepo) UpdatePresence(ctx context.Context, id uuid.UUID, isOnline bool) error {
	return nil
}

type authFixture struct {
	middleware *AuthMiddleware
	userID     uuid.UUID
	sessionID  uuid.UUID
	users      map[uuid.UUID]*entity.User
	sessions   map[uuid.UUID]*entity.Session
}

func newAuthFixture(status entity.AccountStatus) *authFixture {
	userID := uuid.New()
	sessionID := uuid.New()

	users := map[uuid.UUID]*entity.User{
		userID: {
			ID:            userID,
			Email:         "user@example.com",
			Role:          entity.RoleUser,
			Status:        status,
			EmailVerified: status == entity.StatusActive,
		},
	}
	sessions := map[uuid.UUID]*entity.Session{
		sessionID: {
			ID:        sessionID,
			UserID:    userID,
			IsActive:  true,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	tokenSvc := &fakeTokenService{claims: map[string]*service.SessionClaims{
		"valid-token": {UserID: userID, SessionID: sessionID, Role: entity.RoleUser},
	}}

	return &authFixture{
		middleware: NewAuthMiddleware(tokenSvc, &fakeSessionRepo{sessions: sessions}, &fakeUserRepo{users: users}),
		userID:     userID,
		sessionID:  sessionID,
		users:      users,
		sessions:   sessions,
	}
}

func invokeAuthenticate(t *testing.T, m *AuthMiddleware, bearer string) (echo.Context, error) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	return c, m.Authenticate(next)(c)
}

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(entity.StatusActive)

	c, err := invokeAuthenticate(t, fixture.middleware, "valid-token")
	require.NoError(t, err)
	assert.Equal(t, fixture.userID, c.Get(ContextUserID))
	assert.Equal(t, fixture.sessionID, c.Get(ContextSessionID))
	assert.Equal(t, entity.RoleUser, c.Get(ContextRole))
}

func TestAuthenticate_MissingToken(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(entity.StatusActive)

	_, err := invokeAuthenticate(t, fixture.middleware, "")
	assert.Equal(t, domainerrors.ErrTokenMissing, err)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(entity.StatusActive)

	_, err := invokeAuthenticate(t, fixture.middleware, "garbage")
	assert.Equal(t, domainerrors.ErrTokenInvalid, err)
}

func TestAuthenticate_RejectsNonActiveStatuses(t *testing.T) {
	t.Parallel()

	// Pending accounts may log in, but authenticated routes require ACTIVE.
	statuses := []entity.AccountStatus{
		entity.StatusPendingVerification,
		entity.StatusSuspended,
		entity.StatusDeleted,
	}

	for _, status := range statuses {
		fixture := newAuthFixture(status)

		c, err := invokeAuthenticate(t, fixture.middleware, "valid-token")
		assert.Equal(t, domainerrors.ErrAccountNotActive, err, "status %s", status)
		assert.Nil(t, c.Get(ContextUserID), "status %s", status)
	}
}

func TestAuthenticate_PendingStatusGets403Response(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(entity.StatusPendingVerification)

	e := echo.New()
	e.HTTPErrorHandler = NewErrorMiddleware(newDiscardLogger()).HandleHTTPError
	e.GET("/profile", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, fixture.middleware.Authenticate)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Account is not active", body.Message)
}

func TestAuthenticate_RejectsInactiveAndExpiredSessions(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(entity.StatusActive)
	fixture.sessions[fixture.sessionID].IsActive = false

	_, err := invokeAuthenticate(t, fixture.middleware, "valid-token")
	assert.Equal(t, domainerrors.ErrSessionInvalid, err)

	fixture = newAuthFixture(entity.StatusActive)
	fixture.sessions[fixture.sessionID].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = invokeAuthenticate(t, fixture.middleware, "valid-token")
	assert.Equal(t, domainerrors.ErrSessionInvalid, err)
}

func TestRequireVerifiedEmail(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(entity.StatusActive)
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodPut, "/profile", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	err := fixture.middleware.RequireVerifiedEmail(next)(c)
	assert.Equal(t, domainerrors.ErrAuthRequired, err)

	c.Set(ContextUserID, fixture.userID)
	fixture.users[fixture.userID].EmailVerified = false
	err = fixture.middleware.RequireVerifiedEmail(next)(c)
	assert.Equal(t, domainerrors.ErrEmailNotVerified, err)

	fixture.users[fixture.userID].EmailVerified = true
	err = fixture.middleware.RequireVerifiedEmail(next)(c)
	assert.NoError(t, err)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	fixture := newAuthFixture(entity.StatusActive)
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	c.Set(ContextRole, entity.RoleUser)
	err := fixture.middleware.RequireRole(entity.RoleAdmin)(next)(c)
	assert.Equal(t, domainerrors.ErrInsufficientPermissions, err)

	c.Set(ContextRole, entity.RoleAdmin)
	err = fixture.middleware.RequireRole(entity.RoleAdmin)(next)(c)
	assert.NoError(t, err)
}
