package logging

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Logger with a shared {interval, burst} limiter so that
// a noisy data-thread path (xrun warnings, missed-wakeup counters) cannot
// flood the log (§4.5, §5: "The scheduler is rate-limited (2s interval,
// burst 1) so repeated xruns don't flood the log").
//
// The limiter is a golang.org/x/time/rate token bucket: it holds at most
// burst tokens and gains one token per interval.
type RateLimited struct {
	log     *Logger
	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewRateLimited builds a rate-limited logger. burst tokens are available
// immediately; after that one token is added per interval, up to burst.
func NewRateLimited(log *Logger, interval time.Duration, burst int) *RateLimited {
	return &RateLimited{
		log:     log,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Allow reports whether a log line may be emitted right now, consuming one
// token if so.
func (r *RateLimited) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limiter.Allow()
}

// Warnf logs at WARN level only if the limiter currently has budget.
func (r *RateLimited) Warnf(format string, args ...any) bool {
	if !r.Allow() {
		return false
	}
	r.log.Warnf(format, args...)
	return true
}
