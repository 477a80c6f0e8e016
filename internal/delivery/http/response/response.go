// Package response defines the unified API response envelope.
package response

import (
	"time"

	"labfry/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform JSON body for every auth endpoint. Token fields are
// only populated on login and refresh; the same values also travel as
// httpOnly cookies.
type Envelope struct {
	Success      bool         `json:"success"`
	Message      string       `json:"message,omitempty"`
	User         *entity.User `json:"user,omitempty"`
	Token        string       `json:"token,omitempty"`
	RefreshToken string       `json:"refreshToken,omitempty"`
}

// RateLimited is the 429 body produced by the rate-limit middleware.
type RateLimited struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	RetryAfter   int    `json:"retryAfter"`
	RetryAfterMs int64  `json:"retryAfterMs"`
	Timestamp    string `json:"timestamp"`
}

// Success writes a success envelope.
func Success(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, Envelope{Success: true, Message: message})
}

// Failure writes a business-rejection envelope.
func Failure(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, Envelope{Success: false, Message: message})
}

// JSON writes a fully populated envelope.
func JSON(c echo.Context, statusCode int, env Envelope) error {
	return c.JSON(statusCode, env)
}

// NewRateLimited builds the 429 body for a retry window.
func NewRateLimited(message string, retryAfter time.Duration) RateLimited {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	return RateLimited{
		Success:      false,
		Message:      message,
		RetryAfter:   seconds,
		RetryAfterMs: int64(seconds) * 1000,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}
