package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"rental-location/internal/utils"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimiter is a per-client token bucket for form submissions.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	// forwarded client addresses are only believed from these peers
	trusted []*net.IPNet

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type peerAddrKey struct{}

// CapturePeer records the socket peer address before any middleware rewrites
// RemoteAddr from forwarding headers.
func CapturePeer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerAddrKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TrustProxies accepts CIDRs or bare IPs of reverse proxies whose
// X-Forwarded-For / X-Real-IP may pick the bucket.
func (l *RateLimiter) TrustProxies(proxies []string) error {
	for _, p := range proxies {
		if ip := net.ParseIP(p); ip != nil {
			bits := 8 * len(ip.To16())
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			l.trusted = append(l.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(p)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		l.trusted = append(l.trusted, network)
	}
	return nil
}

func (l *RateLimiter) trusts(host string) bool {
	if l == nil {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, network := range l.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

// Allow reports whether key may submit now.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, c := range l.clients {
		if now.After(c.expires) {
			delete(l.clients, k)
		}
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.expires = now.Add(limiterIdleTTL)
	return c.limiter.AllowN(now, 1)
}

// Middleware answers 429 once a client address runs out of tokens.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(l.clientKey(r)) {
			utils.WriteError(w, http.StatusTooManyRequests, "Too many submissions, try again shortly", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the socket peer, or the forwarded client address when the peer
// is a trusted proxy. A nil limiter trusts no proxy.
func (l *RateLimiter) clientKey(r *http.Request) string {
	peer, ok := r.Context().Value(peerAddrKey{}).(string)
	if !ok {
		peer = r.RemoteAddr
	}
	host := hostOnly(peer)
	if l.trusts(host) {
		return hostOnly(r.RemoteAddr)
	}
	return host
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
