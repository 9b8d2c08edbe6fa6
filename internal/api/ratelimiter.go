package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter admits a request now or reports how long the caller should
// wait before trying again.
type rateLimiter interface {
	Allow() (bool, time.Duration)
}

// Limiter scopes. Solve and report run the solver and share the stricter bucket.
const (
	scopeRequests = "requests"
	scopeSolves   = "solves"
)

type tokenBucket struct {
	limiter *rate.Limiter
}

func newTokenBucket(ratePerSecond float64, burst int) *tokenBucket {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &tokenBucket{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Allow takes a token if one is available. A denied request leaves the bucket
// untouched and reports when the next token is due.
func (b *tokenBucket) Allow() (bool, time.Duration) {
	if b == nil || b.limiter == nil {
		return true, 0
	}
	r := b.limiter.Reserve()
	if !r.OK() {
		return false, 0
	}
	if wait := r.Delay(); wait > 0 {
		r.Cancel()
		return false, wait
	}
	return true, 0
}

func limitMiddleware(limiter rateLimiter, scope string, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := limiter.Allow()
		if ok {
			next.ServeHTTP(w, r)
			return
		}
		seconds := retryAfterSeconds(wait)
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeError(w, http.StatusTooManyRequests, "Too many requests",
			fmt.Sprintf("%s rate limit exceeded, retry in %ds", scope, seconds))
	})
}

func retryAfterSeconds(wait time.Duration) int {
	if wait <= 0 {
		return 1
	}
	return int(math.Ceil(wait.Seconds()))
}
