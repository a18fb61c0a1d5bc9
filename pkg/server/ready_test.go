package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalResolveOnce(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	assert.False(t, s.Resolved())
	assert.NoError(t, s.Err())

	first := errors.New("bind failed")
	s.Resolve(first)
	s.Resolve(nil)
	s.Resolve(errors.New("other"))

	assert.True(t, s.Resolved())
	assert.Equal(t, first, s.Err())
	assert.Equal(t, first, s.Wait(context.Background()))
}

func TestSignalSuccess(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	s.Resolve(nil)
	assert.True(t, s.Resolved())
	assert.NoError(t, s.Wait(context.Background()))
}

func TestSignalMultipleWaiters(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	const waiters = 8

	var wg sync.WaitGroup
	results := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Wait(context.Background())
		}(i)
	}

	s.Resolve(nil)
	wg.Wait()

	for i, err := range results {
		assert.NoError(t, err, "waiter %d", i)
	}
}

func TestSignalWaitObservedBeforeProceeding(t *testing.T) {
	t.Parallel()

	// The waiter must never get past Wait before Resolve has run.
	for i := 0; i < 100; i++ {
		s := NewSignal()
		go s.Resolve(nil)
		require.NoError(t, s.Wait(context.Background()))
		require.True(t, s.Resolved())
	}
}

func TestSignalWaitContextCancelled(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, s.Resolved())

	// Resolution after a cancelled wait still works for later waiters.
	s.Resolve(nil)
	assert.NoError(t, s.Wait(context.Background()))
}

func TestSignalDoneChannel(t *testing.T) {
	t.Parallel()

	s := NewSignal()
	select {
	case <-s.Done():
		t.Fatal("done channel closed before resolve")
	default:
	}

	s.Resolve(nil)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("done channel not closed after resolve")
	}
}
