package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"comedyuo/showsync/internal/constants"
)

// limiterIdleTTL is how long an IP's bucket survives without requests
const limiterIdleTTL = 10 * time.Minute

// IPRateLimiter keeps one token bucket per client IP. Buckets idle for
// longer than the TTL are dropped.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	idleTTL  time.Duration
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return newIPRateLimiter(rps, burst, limiterIdleTTL)
}

func newIPRateLimiter(rps float64, burst int, idleTTL time.Duration) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		limiters: cache.New(idleTTL, 2*idleTTL),
		idleTTL:  idleTTL,
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
	}
	// re-set on every hit so expiry counts from the last request
	l.limiters.Set(ip, limiter, l.idleTTL)
	return limiter.(*rate.Limiter)
}

// Middleware rejects requests over the per-IP budget with 429
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if !l.getLimiter(ip).Allow() {
			writeError(w, http.StatusTooManyRequests, constants.MsgTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
