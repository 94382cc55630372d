// Package limiter admits OCR work against a process-wide budget of worker
// slots shared by every in-flight document.
package limiter

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/local/ocrdispatcher/internal/metrics"
)

// ErrSaturated is returned in reject mode when not enough slots are free.
var ErrSaturated = errors.New("worker pool saturated")

// Mode selects what happens when a request cannot be admitted immediately.
type Mode string

const (
	// ModeWait blocks until slots free up or the context ends.
	ModeWait Mode = "wait"
	// ModeReject fails immediately with ErrSaturated.
	ModeReject Mode = "reject"
)

// ParseMode accepts "wait", "reject" or "" (wait).
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeWait:
		return ModeWait, nil
	case ModeReject:
		return ModeReject, nil
	default:
		return "", fmt.Errorf("unknown admission mode %q", s)
	}
}

type Options struct {
	Capacity int
	Mode     Mode
}

// Limiter is a weighted semaphore sized to the pool capacity. Requests for
// more slots than exist are clamped to the capacity.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int64
	mode     Mode
}

func New(opts Options) *Limiter {
	if opts.Capacity < 1 {
		opts.Capacity = 1
	}
	if opts.Mode == "" {
		opts.Mode = ModeWait
	}
	return &Limiter{
		sem:      semaphore.NewWeighted(int64(opts.Capacity)),
		capacity: int64(opts.Capacity),
		mode:     opts.Mode,
	}
}

func (l *Limiter) Capacity() int { return int(l.capacity) }
func (l *Limiter) Mode() Mode    { return l.mode }

func (l *Limiter) clamp(n int) int64 {
	switch {
	case n < 1:
		return 1
	case int64(n) > l.capacity:
		return l.capacity
	default:
		return int64(n)
	}
}

// Acquire blocks until n slots are held or ctx ends.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	return l.sem.Acquire(ctx, l.clamp(n))
}

// TryAcquire takes n slots only if they are free right now.
func (l *Limiter) TryAcquire(n int) bool {
	return l.sem.TryAcquire(l.clamp(n))
}

// Release returns n slots.
func (l *Limiter) Release(n int) {
	l.sem.Release(l.clamp(n))
}

// Allow admits n slots according to the configured mode and returns the
// function that releases them.
func (l *Limiter) Allow(ctx context.Context, n int) (func(), error) {
	release := func() { l.Release(n) }
	if l.mode == ModeReject {
		if !l.TryAcquire(n) {
			metrics.IncAdmissionRejected()
			return func() {}, ErrSaturated
		}
		return release, nil
	}
	if err := l.Acquire(ctx, n); err != nil {
		return func() {}, err
	}
	return release, nil
}
