package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbeaudouin05/quitcoach/api/logging"
	"github.com/tbeaudouin05/quitcoach/api/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Seen-Request-Id", logging.RequestID(r.Context()))
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	h := middleware.RequestID(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	id := rec.Header().Get(middleware.RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rec.Header().Get("X-Seen-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(middleware.AllowedOrigins("https://app.quitcoach.io/"))(ok)

	cases := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"https://app.quitcoach.io", true},
		{"https://evil.example.com", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/trpc/health", nil)
		req.Header.Set("Origin", tc.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if tc.allowed {
			assert.Equal(t, tc.origin, rec.Header().Get("Access-Control-Allow-Origin"), tc.origin)
			assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		} else {
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), tc.origin)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "no Origin header passes")
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.AllowedOrigins(""))(ok)

	req := httptest.NewRequest(http.MethodOptions, "/trpc/quitAttempts.create", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "authorization, content-type", rec.Header().Get("Access-Control-Allow-Headers"))

	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.SecurityHeaders(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := middleware.NewMemoryLimiter(2, time.Minute, func() time.Time { return now })
	ctx := context.Background()

	q, err := l.Hit(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, q.Allowed)
	assert.Equal(t, 1, q.Remaining)

	q, _ = l.Hit(ctx, "1.2.3.4")
	assert.True(t, q.Allowed)
	q, _ = l.Hit(ctx, "1.2.3.4")
	assert.False(t, q.Allowed)
	assert.Equal(t, 0, q.Remaining)

	q, _ = l.Hit(ctx, "5.6.7.8")
	assert.True(t, q.Allowed, "keys are independent")

	now = now.Add(time.Minute)
	q, _ = l.Hit(ctx, "1.2.3.4")
	assert.True(t, q.Allowed, "window resets")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := middleware.NewMemoryLimiter(1, 15*time.Minute, nil)
	h := middleware.RateLimit(l)(ok)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too Many Requests")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", middleware.ClientIP(req))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "192.0.2.1", middleware.ClientIP(req), "untrusted peer")

	proxies := []netip.Prefix{netip.MustParsePrefix("192.0.2.0/24"), netip.MustParsePrefix("10.0.0.0/8")}
	assert.Equal(t, "203.0.113.7", middleware.ClientIP(req, proxies...))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.7, 10.1.2.3")
	assert.Equal(t, "203.0.113.7", middleware.ClientIP(req, proxies...), "spoofed leftmost hop is ignored")

	req.Header.Set("X-Forwarded-For", "garbage")
	assert.Equal(t, "192.0.2.1", middleware.ClientIP(req, proxies...))

	req.RemoteAddr = "[::ffff:192.0.2.9]:443"
	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "192.0.2.9", middleware.ClientIP(req, proxies...))
}

func TestRateLimit_RotatingForwardedForFromUntrustedPeer(t *testing.T) {
	h := middleware.RateLimit(middleware.NewMemoryLimiter(2, time.Minute, nil))(ok)

	allowed := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestRateLimit_TrustedProxyKeysOnForwardedClient(t *testing.T) {
	proxy := netip.MustParsePrefix("10.0.0.0/8")
	h := middleware.RateLimit(middleware.NewMemoryLimiter(1, time.Minute, nil), proxy)(ok)

	for _, client := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.5:8080"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, client)
	}
}

func TestMemoryLimiter_SweepsOncePerPeriod(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := middleware.NewMemoryLimiter(5, time.Minute, func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := l.Hit(ctx, fmt.Sprintf("198.51.100.%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 50, l.Len())

	now = now.Add(30 * time.Second)
	_, _ = l.Hit(ctx, "203.0.113.1")
	assert.Equal(t, 51, l.Len(), "nothing expired yet")

	now = now.Add(45 * time.Second)
	_, _ = l.Hit(ctx, "203.0.113.2")
	assert.Equal(t, 2, l.Len(), "expired windows dropped")

	q, _ := l.Hit(ctx, "203.0.113.1")
	assert.Equal(t, 3, q.Remaining, "live window kept its count")
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	middleware.Chain(ok, mw("a"), mw("b")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}

// Requires a reachable Redis; set REDIS_URL to run.
func TestRedisLimiter_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in -short mode")
	}
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	l, err := middleware.NewRedisLimiter(ctx, url, 2, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	key := "test-" + time.Now().Format(time.RFC3339Nano)
	q, err := l.Hit(ctx, key)
	require.NoError(t, err)
	assert.True(t, q.Allowed)
	_, err = l.Hit(ctx, key)
	require.NoError(t, err)
	q, err = l.Hit(ctx, key)
	require.NoError(t, err)
	assert.False(t, q.Allowed)
	assert.LessOrEqual(t, q.Reset, time.Minute)
}
