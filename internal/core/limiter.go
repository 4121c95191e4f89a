package core

// limiter.go bounds how many conversions run at once.
//
// A conversion holds its whole input and output in memory, so the service
// caps parallel work with a semaphore. When every slot is taken, a caller
// waits up to maxWait and then gets ErrTooManyConversions.
//
// WaitForDrain lets shutdown block until in-flight conversions finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyConversions is returned when no slot frees up within the wait
// time. Clients should retry after a short delay.
var ErrTooManyConversions = errors.New("too many concurrent conversions, please try again later")

// DefaultMaxConcurrent is the default limit for parallel conversions.
const DefaultMaxConcurrent = 4

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 10 * time.Second

// ConvertLimiter is a counting semaphore around conversions.
type ConvertLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewConvertLimiter allows at most maxConcurrent simultaneous conversions.
// Non-positive arguments fall back to the defaults.
func NewConvertLimiter(maxConcurrent int, maxWait time.Duration) *ConvertLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &ConvertLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait.
// The caller must Release the slot when done.
func (l *ConvertLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyConversions
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ConvertLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release gives back a slot taken by Acquire or TryAcquire.
func (l *ConvertLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.slots
}

// ActiveCount returns the number of conversions in progress.
func (l *ConvertLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no conversion is running or ctx ends.
func (l *ConvertLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *ConvertLimiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
