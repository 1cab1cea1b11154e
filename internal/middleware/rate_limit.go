package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/csmith1188/digipogs/internal/api/httpx"
)

// rpsLimiter is a coarse token bucket over the whole listener. Per-account
// abuse control lives in rateguard; this only sheds load.
type rpsLimiter struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64
}

func (l *rpsLimiter) allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.rate {
		l.tokens = l.rate
	}
	l.last = now
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := &rpsLimiter{tokens: float64(rps), last: time.Now(), rate: float64(rps)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(time.Now()) {
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
