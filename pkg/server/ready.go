package server

import (
	"context"
	"sync"
)

// Signal is a one-shot readiness event. It is resolved at most once, with
// the terminal outcome of a background operation (nil for success), and can
// be waited on any number of times. It is never reset.
type Signal struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewSignal creates an unresolved readiness signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Resolve records the outcome and releases all waiters.
// Only the first call has any effect.
func (s *Signal) Resolve(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Done returns a channel closed once the signal is resolved.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Resolved reports whether the signal has been resolved.
func (s *Signal) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal is resolved or the context is cancelled.
// It returns the recorded outcome, or the context error on cancellation.
func (s *Signal) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the recorded outcome. It is only meaningful after the
// signal has resolved.
func (s *Signal) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
