package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"labfry/config"
	"labfry/internal/delivery/http/response"

	"github.com/labstack/echo/v4"
)

// rateWindow tracks one client's hits inside the current fixed window.
type rateWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a process-local fixed-window limiter keyed by client IP.
// Counters are not shared across instances; behind a load balancer each
// process enforces its own window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateWindow

	max       int
	window    time.Duration
	noun      string
	lastSweep time.Time
}

// NewRateLimiter builds a limiter allowing max hits per window per IP.
// The noun customizes the 429 message ("requests", "verification attempts").
func NewRateLimiter(max int, window time.Duration, noun string) *RateLimiter {
	return &RateLimiter{
		clients:   make(map[string]*rateWindow),
		max:       max,
		window:    window,
		noun:      noun,
		lastSweep: time.Now(),
	}
}

// allow records a hit and reports whether it is within the limit, along with
// the remaining time in the client's window when it is not.
func (rl *RateLimiter) allow(ip string, now time.Time) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Drop stale windows opportunistically so the map stays bounded.
	if now.Sub(rl.lastSweep) > rl.window {
		for key, w := range rl.clients {
			if now.Sub(w.windowStart) >= rl.window {
				delete(rl.clients, key)
			}
		}
		rl.lastSweep = now
	}

	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.windowStart) >= rl.window {
		rl.clients[ip] = &rateWindow{count: 1, windowStart: now}

		return true, 0
	}

	w.count++
	if w.count > rl.max {
		return false, rl.window - now.Sub(w.windowStart)
	}

	return true, 0
}

// Middleware returns the echo middleware enforcing this limiter.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := rl.allow(c.RealIP(), time.Now())
			if ok {
				return next(c)
			}

			body := response.NewRateLimited(rl.message(retryAfter), retryAfter)
			c.Response().Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))

			return c.JSON(http.StatusTooManyRequests, body)
		}
	}
}

func (rl *RateLimiter) message(retryAfter time.Duration) string {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	var wait string
	switch {
	case seconds < 60:
		wait = fmt.Sprintf("%d second%s", seconds, plural(seconds))
	case seconds < 3600:
		minutes := (seconds + 59) / 60
		wait = fmt.Sprintf("%d minute%s", minutes, plural(minutes))
	default:
		hours := (seconds + 3599) / 3600
		wait = fmt.Sprintf("%d hour%s", hours, plural(hours))
	}

	return fmt.Sprintf("Too many %s. Please try again in %s.", rl.noun, wait)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}

	return "s"
}

// RateLimiters bundles the per-route-group limiters.
type RateLimiters struct {
	// Auth guards credential-checking endpoints (login).
	Auth *RateLimiter
	// Verification guards code/token consumption endpoints.
	Verification *RateLimiter
	// Email guards endpoints that trigger outbound mail.
	Email *RateLimiter
}

// NewRateLimiters builds the limiter set from configuration.
func NewRateLimiters(cfg *config.Config) *RateLimiters {
	rl := cfg.RateLimit

	return &RateLimiters{
		Auth:         NewRateLimiter(rl.Auth.Max, rl.Auth.Window, "requests"),
		Verification: NewRateLimiter(rl.Verification.Max, rl.Verification.Window, "verification attempts"),
		Email:        NewRateLimiter(rl.Email.Max, rl.Email.Window, "email requests"),
	}
}
