// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"labfry/config"
	"labfry/internal/delivery/http/middleware"
	"labfry/internal/delivery/http/response"
	"labfry/internal/domain/entity"
	"labfry/internal/domain/repository"
	"labfry/internal/domain/service"
	"labfry/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for the authentication endpoints.
type AuthHandler struct {
	uc           usecase.AuthUsecase
	tokenSvc     service.TokenService
	mailer       service.Mailer
	logger       *slog.Logger
	secureCookie bool
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, tokenSvc service.TokenService, mailer service.Mailer, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		tokenSvc:     tokenSvc,
		mailer:       mailer,
		logger:       logger,
		secureCookie: cfg.Env.Env == "production",
	}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      string `json:"role" validate:"omitempty,oneof=ADMIN USER CUSTOMER"`
}

type loginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// proofRequest carries the dual-mode verification inputs: a link token, or a
// code paired with the email it was sent to.
type proofRequest struct {
	Token string `json:"token"`
	Code  string `json:"code" validate:"omitempty,len=6"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (r *proofRequest) proof() usecase.Proof {
	switch {
	case r.Token != "":
		return usecase.TokenProof(r.Token)
	case r.Code != "" && r.Email != "":
		return usecase.CodeProof(r.Code, r.Email)
	default:
		return usecase.Proof{}
	}
}

type resetPasswordRequest struct {
	proofRequest
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

type onlineStatusRequest struct {
	IsOnline *bool `json:"isOnline" validate:"required"`
}

type adminResetPasswordRequest struct {
	TargetEmail string `json:"targetEmail" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	return c.Validate(req)
}

// setAuthCookies mirrors the token pair into httpOnly cookies. Max-age tracks
// the token lifetimes, not the session lifetime.
func (h *AuthHandler) setAuthCookies(c echo.Context, token, refreshToken string) {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenSvc.AccessTokenTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     "refreshToken",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.tokenSvc.RefreshTokenTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{"token", "refreshToken"} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func resultEnvelope(result *usecase.AuthResult) response.Envelope {
	return response.Envelope{
		Success:      result.Success,
		Message:      result.Message,
		User:         result.User,
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
	}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      entity.RoleFromString(req.Role),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusBadRequest
	}

	return response.JSON(c, status, resultEnvelope(result))
}

// Login handles POST /login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if !result.Success {
		return response.JSON(c, http.StatusUnauthorized, resultEnvelope(result))
	}

	h.setAuthCookies(c, result.Token, result.RefreshToken)

	return response.JSON(c, http.StatusOK, resultEnvelope(result))
}

// VerifyEmail handles POST /verify-email.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req proofRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.VerifyEmail(c.Request().Context(), req.proof())
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}

	return response.JSON(c, status, resultEnvelope(result))
}

// ResendVerification handles POST /resend-verification.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.ResendVerification(c.Request().Context(), req.Email)
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}

	return response.JSON(c, status, resultEnvelope(result))
}

// ForgotPassword handles POST /forgot-password. Always 200 so the response
// cannot be used to probe which emails exist.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, resultEnvelope(result))
}

// ResetPassword handles POST /reset-password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.ResetPassword(c.Request().Context(), req.proof(), req.NewPassword)
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}

	return response.JSON(c, status, resultEnvelope(result))
}

// Refresh handles POST /refresh. The refresh token comes from the httpOnly
// cookie when present, falling back to the request body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return response.Failure(c, http.StatusUnauthorized, "Refresh token is required")
	}

	result, err := h.uc.Refresh(c.Request().Context(), refreshToken)
	if err != nil {
		return errors.WithStack(err)
	}

	if !result.Success {
		return response.JSON(c, http.StatusUnauthorized, resultEnvelope(result))
	}

	h.setAuthCookies(c, result.Token, result.RefreshToken)

	return response.JSON(c, http.StatusOK, resultEnvelope(result))
}

// Logout handles POST /logout. Cookies are cleared whatever happens to the
// session row.
func (h *AuthHandler) Logout(c echo.Context) error {
	sessionID, ok := middleware.SessionIDFromContext(c)
	if !ok {
		return response.Failure(c, http.StatusUnauthorized, "Authentication required")
	}

	result, err := h.uc.Logout(c.Request().Context(), sessionID)
	if err != nil {
		return errors.WithStack(err)
	}

	h.clearAuthCookies(c)

	return response.JSON(c, http.StatusOK, resultEnvelope(result))
}

// GetProfile handles GET /profile.
func (h *AuthHandler) GetProfile(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return response.Failure(c, http.StatusUnauthorized, "Authentication required")
	}

	user, err := h.uc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return response.Failure(c, http.StatusNotFound, "User not found")
		}

		return errors.WithStack(err)
	}

	return response.JSON(c, http.StatusOK, response.Envelope{Success: true, User: user})
}

// UpdateProfile handles PUT /profile.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return response.Failure(c, http.StatusUnauthorized, "Authentication required")
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.UpdateProfile(c.Request().Context(), &usecase.UpdateProfileInput{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}

	return response.JSON(c, status, resultEnvelope(result))
}

// UpdateOnlineStatus handles PUT /online-status. The write is best-effort so
// the endpoint always reports success.
func (h *AuthHandler) UpdateOnlineStatus(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return response.Failure(c, http.StatusUnauthorized, "Authentication required")
	}

	var req onlineStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	h.uc.UpdateOnlineStatus(c.Request().Context(), userID, *req.IsOnline)

	return response.Success(c, http.StatusOK, "Online status updated successfully")
}

// AdminResetPassword handles POST /admin/reset-password.
func (h *AuthHandler) AdminResetPassword(c echo.Context) error {
	adminID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return response.Failure(c, http.StatusUnauthorized, "Authentication required")
	}

	var req adminResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.uc.AdminResetPassword(c.Request().Context(), adminID, req.TargetEmail, req.NewPassword)
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusForbidden
	}

	return response.JSON(c, status, resultEnvelope(result))
}

// EmailHealth handles GET /email-health, probing SMTP connectivity.
func (h *AuthHandler) EmailHealth(c echo.Context) error {
	if err := h.mailer.HealthCheck(c.Request().Context()); err != nil {
		h.logger.Warn("Email health check failed", slog.String("error", err.Error()))

		return response.Failure(c, http.StatusOK, "Email service connection failed")
	}

	return response.Success(c, http.StatusOK, "Email service is working correctly")
}
