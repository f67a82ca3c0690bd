package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serveFrom(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIPRateLimiter_BlocksAfterBurst(t *testing.T) {
	l := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	e := echo.New()
	e.Use(l.Middleware())
	e.GET("/", okHandler)

	assert.Equal(t, http.StatusOK, serveFrom(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, serveFrom(e, "10.0.0.1").Code)

	rec := serveFrom(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0.001", rec.Header().Get("X-RateLimit-Limit"))
}

func TestIPRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	l := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	e := echo.New()
	e.Use(l.Middleware())
	e.GET("/", okHandler)

	assert.Equal(t, http.StatusOK, serveFrom(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, serveFrom(e, "10.0.0.2").Code)
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 10, Burst: 10, IdleTTL: time.Minute})
	l.now = func() time.Time { return now }

	l.limiter("10.0.0.1")
	now = now.Add(30 * time.Second)
	l.limiter("10.0.0.2")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "10.0.0.2")
}
