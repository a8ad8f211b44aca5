package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	mu      sync.Mutex
	perSec  rate.Limit
	burst   int
	clients map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idleLimiterTTL is how long a silent client keeps its bucket.
const idleLimiterTTL = 10 * time.Minute

func newClientLimiter(perSec float64, burst int) *clientLimiter {
	return &clientLimiter{
		perSec:  rate.Limit(perSec),
		burst:   burst,
		clients: make(map[string]*limiterEntry),
	}
}

func (c *clientLimiter) allow(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.clients[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(c.perSec, c.burst)}
		c.clients[key] = e
	}
	e.lastSeen = now

	// sweep opportunistically so the map cannot grow without bound
	if len(c.clients) > 1024 {
		for k, v := range c.clients {
			if now.Sub(v.lastSeen) > idleLimiterTTL {
				delete(c.clients, k)
			}
		}
	}
	return e.limiter.AllowN(now, 1)
}

// middleware rejects clients over their rate with 429.
func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			key = host
		}
		if !c.allow(key, time.Now()) {
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limited", errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
