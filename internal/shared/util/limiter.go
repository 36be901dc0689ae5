package util

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}

// TriggerLimiter keeps one token bucket per trigger source, so a burst of key
// presses cannot starve config reloads and vice versa.
type TriggerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
	rate     float64
	burst    int
}

// NewTriggerLimiter creates a limiter allowing r triggers per second per
// source with burst b. A non-positive r disables throttling.
func NewTriggerLimiter(r float64, b int) *TriggerLimiter {
	if b < 1 {
		b = 1
	}
	return &TriggerLimiter{
		limiters: make(map[string]*Limiter),
		rate:     r,
		burst:    b,
	}
}

// Allow reports whether a trigger from source may run now.
func (t *TriggerLimiter) Allow(source string) bool {
	if t == nil || t.rate <= 0 {
		return true
	}
	t.mu.Lock()
	l, ok := t.limiters[source]
	if !ok {
		l = NewLimiter(t.rate, t.burst)
		t.limiters[source] = l
	}
	t.mu.Unlock()
	return l.Allow(1)
}
