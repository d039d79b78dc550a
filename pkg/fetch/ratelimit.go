package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RateLimiter spaces requests per host for politeness.
type RateLimiter struct {
	mu           sync.Mutex
	lastRequest  map[string]time.Time
	defaultDelay time.Duration
	log          *logrus.Logger
}

// NewRateLimiter creates a RateLimiter with a fallback delay used when
// a caller passes a non-positive one.
func NewRateLimiter(defaultDelay time.Duration, log *logrus.Logger) *RateLimiter {
	return &RateLimiter{
		lastRequest:  make(map[string]time.Time),
		defaultDelay: defaultDelay,
		log:          log,
	}
}

// Wait blocks until at least minDelay has passed since the last request
// to host. Jitter of +/- 10% is applied to desynchronize request
// timing. Returns early with ctx.Err() if the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, host string, minDelay time.Duration) error {
	if minDelay <= 0 {
		minDelay = rl.defaultDelay
	}
	if minDelay <= 0 {
		return nil
	}

	rl.mu.Lock()
	last, seen := rl.lastRequest[host]
	rl.mu.Unlock()

	if !seen {
		return nil
	}

	elapsed := time.Since(last)
	if elapsed >= minDelay {
		return nil
	}
	sleep := minDelay - elapsed

	// +/- 10% jitter
	jitterRange := int64(sleep) / 5
	if jitterRange > 0 {
		sleep += time.Duration(rand.Int63n(jitterRange)) - sleep/10
	}
	if sleep <= 0 {
		return nil
	}

	rl.log.WithFields(logrus.Fields{
		"host": host, "sleep": sleep, "required_delay": minDelay,
	}).Debug("Rate limit applying sleep")

	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// MarkRequest records now as the last request attempt time for host.
// Call after each request attempt, successful or not.
func (rl *RateLimiter) MarkRequest(host string) {
	rl.mu.Lock()
	rl.lastRequest[host] = time.Now()
	rl.mu.Unlock()
}
