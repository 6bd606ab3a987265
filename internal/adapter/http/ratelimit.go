package adapthttp

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdle is how long an unused per-user limiter is kept.
const limiterIdle = 10 * time.Minute

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// rateLimiter keeps one token bucket per user.
type rateLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	limiters  map[string]*userLimiter
	lastSweep time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     perMinute,
		limiters:  make(map[string]*userLimiter),
		lastSweep: time.Now(),
	}
}

func (rl *rateLimiter) allow(user string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > limiterIdle {
		for k, ul := range rl.limiters {
			if now.Sub(ul.lastAccess) > limiterIdle {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	ul, ok := rl.limiters[user]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[user] = ul
	}
	ul.lastAccess = now
	return ul.limiter.Allow()
}

// retryAfter is the time for one token to refill, in whole seconds.
func (rl *rateLimiter) retryAfter() int {
	sec := int(math.Ceil(1.0 / float64(rl.limit)))
	if sec < 1 {
		sec = 1
	}
	return sec
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func writeRateLimitResponse(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "rate limit exceeded",
		"kind":  "rate_limited",
	})
}
