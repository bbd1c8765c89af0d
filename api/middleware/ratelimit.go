package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tbeaudouin05/quitcoach/api/logging"
	"github.com/tbeaudouin05/quitcoach/api/metrics"
)

// Quota is the outcome of one limiter hit.
type Quota struct {
	Allowed   bool
	Remaining int
	Reset     time.Duration
}

// Limiter counts hits per key over a fixed window.
type Limiter interface {
	Hit(ctx context.Context, key string) (Quota, error)
	Limit() int
}

// MemoryLimiter keeps per-key windows in process memory. Expired windows are
// swept at most once per period.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	period    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type window struct {
	start time.Time
	count int
}

// NewMemoryLimiter allows limit hits per key every period.
func NewMemoryLimiter(limit int, period time.Duration, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{windows: map[string]*window{}, limit: limit, period: period, now: now, lastSweep: now()}
}

func (m *MemoryLimiter) Limit() int { return m.limit }

func (m *MemoryLimiter) Hit(_ context.Context, key string) (Quota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= m.period {
		m.evict(now)
		m.lastSweep = now
	}
	w, ok := m.windows[key]
	if !ok || now.Sub(w.start) >= m.period {
		w = &window{start: now}
		m.windows[key] = w
	}
	w.count++
	return quota(m.limit, w.count, w.start.Add(m.period).Sub(now)), nil
}

// Len reports how many windows are held.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// evict drops expired windows. Callers hold mu.
func (m *MemoryLimiter) evict(now time.Time) {
	for k, w := range m.windows {
		if now.Sub(w.start) >= m.period {
			delete(m.windows, k)
		}
	}
}

// RedisLimiter shares windows across instances through INCR/EXPIRE.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	period time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter connects to redisURL and verifies it with a ping.
func NewRedisLimiter(ctx context.Context, redisURL string, limit int, period time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisLimiter{client: client, limit: limit, period: period, prefix: "quitcoach:ratelimit:", now: time.Now}, nil
}

func (r *RedisLimiter) Limit() int { return r.limit }

func (r *RedisLimiter) Hit(ctx context.Context, key string) (Quota, error) {
	now := r.now()
	slot := now.UnixNano() / int64(r.period)
	k := r.prefix + key + ":" + strconv.FormatInt(slot, 10)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.period)
	if _, err := pipe.Exec(ctx); err != nil {
		return Quota{}, fmt.Errorf("redis rate limit: %w", err)
	}
	reset := time.Unix(0, (slot+1)*int64(r.period)).Sub(now)
	return quota(r.limit, int(incr.Val()), reset), nil
}

// Close releases the redis connection pool.
func (r *RedisLimiter) Close() error { return r.client.Close() }

func quota(limit, count int, reset time.Duration) Quota {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Quota{Allowed: count <= limit, Remaining: remaining, Reset: reset}
}

// RateLimit rejects clients over their quota with 429. Limiter failures let
// the request through. Clients are keyed by ClientIP.
func RateLimit(l Limiter, trusted ...netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q, err := l.Hit(r.Context(), ClientIP(r, trusted...))
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			resetSeconds := int(math.Ceil(q.Reset.Seconds()))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Limit()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSeconds))
			if !q.Allowed {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(resetSeconds))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"statusCode": http.StatusTooManyRequests,
					"error":      "Too Many Requests",
					"message":    fmt.Sprintf("Rate limit exceeded, retry in %d seconds", resetSeconds),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the peer address. X-Forwarded-For is read only when the
// peer is a trusted proxy; hops are walked right to left and the first one
// that is not itself trusted is the client.
func ClientIP(r *http.Request, trusted ...netip.Prefix) string {
	peer := peerAddr(r.RemoteAddr)
	if !peer.IsValid() {
		return r.RemoteAddr
	}
	if !isTrusted(peer, trusted) {
		return peer.String()
	}
	client := peer
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		client = hop.Unmap()
		if !isTrusted(client, trusted) {
			break
		}
	}
	return client.String()
}

func peerAddr(remote string) netip.Addr {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
