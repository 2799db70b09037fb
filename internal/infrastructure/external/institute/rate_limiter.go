// Package institute implements the institute management server API client.
package institute

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - Token Bucket implementation
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter implements the Token Bucket algorithm to control request
// rate. The institute server throttles aggressive clients, and a blocked
// teacher account mid-marking is far worse than a slightly slower sync.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens        float64       // Maximum tokens in the bucket
	refillRate       float64       // Tokens added per second
	tokens           float64       // Current token count
	lastRefill       time.Time     // Last time tokens were added
	minInterval      time.Duration // Minimum interval between requests
	lastRequest      time.Time     // Time of last request
	waitTimeout      time.Duration // Maximum time to wait for a token
	retryAfter       time.Duration // How long to wait after rate limit hit
	consecutiveWaits int           // Track consecutive waits for adaptive backoff
}

// RateLimiterConfig contains configuration for the rate limiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the maximum sustained request rate
	RequestsPerSecond float64

	// BurstSize is the maximum number of requests that can be made in a burst
	BurstSize int

	// MinInterval is the minimum time between requests (even with tokens available)
	MinInterval time.Duration

	// WaitTimeout is the maximum time to wait for a token
	WaitTimeout time.Duration

	// RetryAfter is the default retry time when rate limited
	RetryAfter time.Duration
}

// DefaultRateLimiterConfig returns conservative defaults for the
// institute server.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 5.0,
		BurstSize:         10,
		MinInterval:       100 * time.Millisecond,
		WaitTimeout:       15 * time.Second,
		RetryAfter:        60 * time.Second,
	}
}

// NewRateLimiter creates a new RateLimiter with the given configuration.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		maxTokens:   float64(config.BurstSize),
		refillRate:  config.RequestsPerSecond,
		tokens:      float64(config.BurstSize), // Start with full bucket
		lastRefill:  now,
		minInterval: config.MinInterval,
		lastRequest: now.Add(-config.MinInterval), // Allow immediate first request
		waitTimeout: config.WaitTimeout,
		retryAfter:  config.RetryAfter,
	}
}

// RateLimitError is returned when the rate limit is exceeded.
type RateLimitError struct {
	// RetryAfter is the suggested time to wait before retrying
	RetryAfter time.Duration

	// Message provides additional context
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return e.Message
}

// Is implements errors.Is matching.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// Allow checks if a request is allowed and blocks until it is or timeout.
// Returns nil if the request can proceed, or an error if rate limited.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		waitTime, ok := rl.tryAcquire()
		if ok {
			return nil
		}

		if time.Now().Add(waitTime).After(deadline) {
			return &RateLimitError{
				RetryAfter: waitTime,
				Message:    "rate limit exceeded, retry after " + waitTime.String(),
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// tryAcquire attempts to acquire a token without blocking.
// Returns (waitTime, success). If success is false, waitTime indicates
// how long to wait before retrying.
func (rl *RateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillTokens()

	timeSinceLastRequest := time.Since(rl.lastRequest)
	if timeSinceLastRequest < rl.minInterval {
		return rl.minInterval - timeSinceLastRequest, false
	}

	if rl.tokens < 1.0 {
		tokensNeeded := 1.0 - rl.tokens
		baseWait := time.Duration(tokensNeeded / rl.refillRate * float64(time.Second))

		// Adaptive backoff for consecutive waits, capped at 32x
		if rl.consecutiveWaits > 0 {
			backoffMultiplier := 1 << uint(min(rl.consecutiveWaits, 5))
			baseWait = time.Duration(float64(baseWait) * float64(backoffMultiplier))
		}
		rl.consecutiveWaits++

		return baseWait, false
	}

	rl.tokens--
	rl.lastRequest = time.Now()
	rl.consecutiveWaits = 0

	return 0, true
}

// refillTokens adds tokens based on time elapsed since last refill.
// Must be called with lock held.
func (rl *RateLimiter) refillTokens() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()

	if elapsed > 0 {
		rl.tokens += elapsed * rl.refillRate
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}
}

// RecordRateLimitHit records that the server returned a 429.
// This adjusts internal state to be more conservative.
func (rl *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Empty the bucket when rate limited
	rl.tokens = 0

	if retryAfter > 0 {
		rl.retryAfter = retryAfter
	}

	// Back off the sustained rate temporarily
	rl.refillRate *= 0.8

	rl.lastRequest = time.Now()
	rl.consecutiveWaits++
}

// Reset resets the rate limiter to initial state.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.tokens = rl.maxTokens
	rl.lastRefill = time.Now()
	rl.lastRequest = time.Now().Add(-rl.minInterval)
	rl.consecutiveWaits = 0
}

// RateLimiterStatus is a point-in-time view of the limiter.
type RateLimiterStatus struct {
	AvailableTokens  float64
	MaxTokens        float64
	RefillRate       float64
	ConsecutiveWaits int
}

// Status returns the current status of the rate limiter.
func (rl *RateLimiter) Status() RateLimiterStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillTokens()

	return RateLimiterStatus{
		AvailableTokens:  rl.tokens,
		MaxTokens:        rl.maxTokens,
		RefillRate:       rl.refillRate,
		ConsecutiveWaits: rl.consecutiveWaits,
	}
}
