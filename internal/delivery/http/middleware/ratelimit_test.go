package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labfry/internal/delivery/http/response"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performRateLimited(t *testing.T, e *echo.Echo, mw echo.MiddlewareFunc, ip string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	return rec
}

func TestRateLimiter_BlocksFourthRequest(t *testing.T) {
	e := echo.New()
	mw := NewRateLimiter(3, time.Minute, "requests").Middleware()

	for range 3 {
		rec := performRateLimited(t, e, mw, "203.0.113.7")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := performRateLimited(t, e, mw, "203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body response.RateLimited
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "Too many requests")
	assert.Positive(t, body.RetryAfter)
	assert.Equal(t, int64(body.RetryAfter)*1000, body.RetryAfterMs)
	assert.NotEmpty(t, body.Timestamp)
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	e := echo.New()
	mw := NewRateLimiter(1, time.Minute, "requests").Middleware()

	first := performRateLimited(t, e, mw, "198.51.100.1")
	assert.Equal(t, http.StatusOK, first.Code)

	blocked := performRateLimited(t, e, mw, "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	other := performRateLimited(t, e, mw, "198.51.100.2")
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond, "requests")
	now := time.Now()

	ok, _ := rl.allow("10.0.0.1", now)
	assert.True(t, ok)

	ok, retryAfter := rl.allow("10.0.0.1", now)
	assert.False(t, ok)
	assert.Positive(t, retryAfter)

	ok, _ = rl.allow("10.0.0.1", now.Add(60*time.Millisecond))
	assert.True(t, ok)
}

func TestRateLimiter_MessageNouns(t *testing.T) {
	verification := NewRateLimiter(1, time.Minute, "verification attempts")
	assert.Contains(t, verification.message(30*time.Second), "Too many verification attempts")
	assert.Contains(t, verification.message(30*time.Second), "30 seconds")

	email := NewRateLimiter(1, 5*time.Minute, "email requests")
	assert.Contains(t, email.message(2*time.Minute), "Too many email requests")
	assert.Contains(t, email.message(2*time.Minute), "2 minutes")
	assert.Contains(t, email.message(time.Second), "1 second.")
}
