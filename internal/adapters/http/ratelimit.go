package httpadapter

import (
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// ownerLimiters keeps one token bucket per owner id. Entries are never
// evicted; owner cardinality is bounded by the identity provider.
type ownerLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	rps   rate.Limit
	burst int
}

func newOwnerLimiters(rps float64, burst int) *ownerLimiters {
	if burst < 1 {
		burst = 1
	}
	return &ownerLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ownerLimiters) get(owner string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[owner]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[owner] = limiter
	}
	return limiter
}

func rateLimitMiddleware(next http.Handler, rps float64, burst int) http.Handler {
	limiters := newOwnerLimiters(rps, burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := limiters.get(ownerFromContext(r.Context()))

		reservation := limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			retryAfter := int(delay.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
