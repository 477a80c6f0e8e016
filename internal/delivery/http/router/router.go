// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"labfry/internal/delivery/http/middleware"
	"labfry/internal/delivery/http/router/handler"
	"labfry/internal/realtime"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiters   *middleware.RateLimiters
	Gateway        *realtime.Gateway
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	authMiddleware *middleware.AuthMiddleware
	rateLimiters   *middleware.RateLimiters
	gateway        *realtime.Gateway
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		authMiddleware: params.AuthMiddleware,
		rateLimiters:   params.RateLimiters,
		gateway:        params.Gateway,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Websocket presence channel
	e.GET("/ws", r.gateway.Handle)

	authGroup := e.Group("/api/auth")
	{
		authGroup.POST("/register", r.authHandler.Register, r.rateLimiters.Email.Middleware())
		authGroup.POST("/login", r.authHandler.Login, r.rateLimiters.Auth.Middleware())
		authGroup.POST("/verify-email", r.authHandler.VerifyEmail, r.rateLimiters.Verification.Middleware())
		authGroup.POST("/resend-verification", r.authHandler.ResendVerification, r.rateLimiters.Email.Middleware())
		authGroup.POST("/forgot-password", r.authHandler.ForgotPassword, r.rateLimiters.Email.Middleware())
		authGroup.POST("/reset-password", r.authHandler.ResetPassword, r.rateLimiters.Verification.Middleware())
		authGroup.POST("/refresh", r.authHandler.Refresh)
		authGroup.POST("/logout", r.authHandler.Logout, r.authMiddleware.Authenticate)

		authGroup.GET("/profile", r.authHandler.GetProfile, r.authMiddleware.Authenticate)
		authGroup.PUT("/profile", r.authHandler.UpdateProfile,
			r.authMiddleware.Authenticate, r.authMiddleware.RequireVerifiedEmail)
		authGroup.PUT("/online-status", r.authHandler.UpdateOnlineStatus, r.authMiddleware.Authenticate)

		authGroup.POST("/admin/reset-password", r.authHandler.AdminResetPassword,
			r.authMiddleware.Authenticate, r.rateLimiters.Verification.Middleware())

		authGroup.GET("/email-health", r.authHandler.EmailHealth)
	}
}
