package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterTTL is how long an idle client's limiter survives before the
// sweep removes it, bounding memory under many distinct source IPs.
const limiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter applies a token-bucket limit per source IP: burst requests
// immediately, refilling at one token per second.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	burst   int
	lastGC  time.Time
}

func newIPLimiter(burst int) *ipLimiter {
	return &ipLimiter{
		clients: make(map[string]*clientLimiter),
		burst:   burst,
		lastGC:  time.Now(),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > limiterTTL {
		for key, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterTTL {
				delete(l.clients, key)
			}
		}
		l.lastGC = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Second), l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// withRateLimit rejects clients exceeding their per-IP budget with 429.
// A burst of 0 or less disables limiting.
func withRateLimit(burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := newIPLimiter(burst)
	return func(next http.Handler) http.Handler {
		if burst <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !limiter.allow(ip) {
				logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				writeError(w, logger, r, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
