package semaphore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name             string
		capacity         int
		expectedCapacity int
	}{
		{
			name:             "positive capacity",
			capacity:         3,
			expectedCapacity: 3,
		},
		{
			name:             "zero capacity is raised to one",
			capacity:         0,
			expectedCapacity: 1,
		},
		{
			name:             "negative capacity is raised to one",
			capacity:         -5,
			expectedCapacity: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expectedCapacity, New(tc.capacity).Capacity())
		})
	}
}

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	sem := New(2)

	require.NoError(t, sem.Acquire(context.Background()))
	require.NoError(t, sem.Acquire(context.Background()))
	require.Equal(t, 2, sem.InFlight())

	sem.Release()
	sem.Release()

	require.Equal(t, 0, sem.InFlight())
}

func TestTryAcquire(t *testing.T) {
	t.Parallel()

	sem := New(1)

	require.True(t, sem.TryAcquire())
	require.False(t, sem.TryAcquire())

	sem.Release()

	require.True(t, sem.TryAcquire())
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	t.Parallel()

	sem := New(1)
	require.NoError(t, sem.Acquire(context.Background()))

	acquired := make(chan struct{})

	go func() {
		_ = sem.Acquire(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while the slot is held")
	case <-time.After(20 * time.Millisecond):
	}

	sem.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire should proceed after release")
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	t.Parallel()

	sem := New(1)
	require.True(t, sem.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, sem.Acquire(ctx), context.DeadlineExceeded)
	require.Equal(t, 1, sem.InFlight())
}

func TestConcurrentHoldersNeverExceedCapacity(t *testing.T) {
	t.Parallel()

	const (
		capacity = 3
		workers  = 20
	)

	sem := New(capacity)

	var (
		active atomic.Int64
		peak   atomic.Int64
		wg     sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = sem.Acquire(context.Background())
			defer sem.Release()

			current := active.Add(1)
			defer active.Add(-1)

			for {
				observed := peak.Load()
				if current <= observed || peak.CompareAndSwap(observed, current) {
					break
				}
			}

			time.Sleep(time.Millisecond)
		}()
	}

	wg.Wait()

	require.LessOrEqual(t, peak.Load(), int64(capacity))
	require.Equal(t, 0, sem.InFlight())
}
