package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/applypilot/applypilot/internal/model"
)

// Limiter enforces a minimum delay between successive calls sharing a key.
// The matching pipeline uses it between per-job LLM passes; source adapters
// use it between requests to the same backend.
type Limiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
}

// NewLimiter creates a limiter that enforces minDelay between consecutive
// calls for the same key.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last call for key.
// Returns an error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	l.mu.Lock()
	last, ok := l.lastCall[key]
	now := time.Now()

	if !ok {
		// First call for this key — no wait needed.
		l.lastCall[key] = now
		l.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= l.minDelay {
		// Enough time has passed — proceed immediately.
		l.lastCall[key] = now
		l.mu.Unlock()
		return nil
	}

	// Need to wait for the remainder.
	remaining := l.minDelay - elapsed
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	l.mu.Lock()
	l.lastCall[key] = time.Now()
	l.mu.Unlock()

	return nil
}

// RateLimitedAdapter is a decorator that enforces source-level rate
// limiting before delegating to the wrapped SourceAdapter.
type RateLimitedAdapter struct {
	inner   model.SourceAdapter
	limiter *Limiter
}

// NewRateLimitedAdapter wraps a SourceAdapter with rate limiting. Adapters
// targeting the same backend should share the limiter instance.
func NewRateLimitedAdapter(inner model.SourceAdapter, limiter *Limiter) *RateLimitedAdapter {
	return &RateLimitedAdapter{inner: inner, limiter: limiter}
}

func (a *RateLimitedAdapter) Name() string { return a.inner.Name() }

// Fetch waits for the rate limiter to allow a request, then delegates to
// the wrapped adapter.
func (a *RateLimitedAdapter) Fetch(ctx context.Context, query string) ([]model.Posting, error) {
	if err := a.limiter.Wait(ctx, a.inner.Name()); err != nil {
		return nil, err
	}
	return a.inner.Fetch(ctx, query)
}
