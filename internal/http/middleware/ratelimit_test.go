package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	assert.True(t, rl.Allow("203.0.113.7"))
	assert.True(t, rl.Allow("203.0.113.7"))
	assert.False(t, rl.Allow("203.0.113.7"))
	assert.True(t, rl.Allow("198.51.100.1"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("203.0.113.7"))
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.Allow("203.0.113.7")
	rl.Allow("198.51.100.1")
	require.Equal(t, 2, rl.size())

	now = now.Add(limiterIdleTTL + limiterSweepEvery)
	rl.Allow("192.0.2.10")
	assert.Equal(t, 1, rl.size())
}

func TestRateLimitMiddleware(t *testing.T) {
	calls := 0
	handler := RateLimit(NewRateLimiter(0.001, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/leadform", nil)
	req.RemoteAddr = "203.0.113.7:41234"
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/leadform", nil)
	req.RemoteAddr = "203.0.113.7:50000"
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"message":"Too Many Requests"}`, second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:41234"
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.Header.Set("X-Real-Ip", "198.51.100.1")
	assert.Equal(t, "198.51.100.1", clientIP(req))
}
