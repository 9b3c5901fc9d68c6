package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterPerClient(t *testing.T) {
	l := NewRateLimiter(60, 2)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "other clients keep their own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(limiterIdleTTL + time.Second)
	l.Allow("b")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "a")
	assert.Contains(t, l.clients, "b")
}

func TestRateLimiterMiddleware(t *testing.T) {
	l := NewRateLimiter(1, 1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/rentals", nil))
	assert.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/rentals", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "Too many submissions")
}

func spoofedRequests(t *testing.T, h http.Handler, n int) int {
	t.Helper()
	allowed := 0
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/rentals", nil)
		req.RemoteAddr = "192.0.2.10:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusCreated {
			allowed++
		}
	}
	return allowed
}

func limitedRouter(l *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(CapturePeer)
	r.Use(middleware.RealIP)
	r.With(l.Middleware).Post("/api/rentals", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	return r
}

func TestRateLimiterIgnoresForwardedHeadersFromUntrustedPeer(t *testing.T) {
	l := NewRateLimiter(1, 1)
	assert.Equal(t, 1, spoofedRequests(t, limitedRouter(l), 20))
}

func TestRateLimiterHonoursForwardedHeadersFromTrustedProxy(t *testing.T) {
	l := NewRateLimiter(1, 1)
	require.NoError(t, l.TrustProxies([]string{"192.0.2.0/24"}))
	assert.Equal(t, 20, spoofedRequests(t, limitedRouter(l), 20))
}

func TestTrustProxies(t *testing.T) {
	l := NewRateLimiter(1, 1)
	require.NoError(t, l.TrustProxies([]string{"10.1.2.3", "172.16.0.0/12", "::1"}))
	assert.True(t, l.trusts("10.1.2.3"))
	assert.False(t, l.trusts("10.1.2.4"))
	assert.True(t, l.trusts("172.20.1.1"))
	assert.True(t, l.trusts("::1"))

	assert.Error(t, l.TrustProxies([]string{"not-a-network"}))
}
