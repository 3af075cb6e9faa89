package flume

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalGetSet(t *testing.T) {
	sig := NewSignal(10)
	assert.Equal(t, 10, sig.Get())

	sig.Set(42)
	assert.Equal(t, 42, sig.Get())
}

func TestSignalUpdateReturnsNewValue(t *testing.T) {
	sig := NewSignal(1)
	got := sig.Update(func(n int) int { return n + 1 })
	assert.Equal(t, 2, got)
	assert.Equal(t, 2, sig.Get())
}

func TestSignalConcurrentUpdates(t *testing.T) {
	const workers = 100

	sig := NewSignal(0)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			sig.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, sig.Get(), "every update must be applied exactly once")
}

func TestSignalAwaitImmediate(t *testing.T) {
	sig := NewSignal(5)
	v, err := sig.Await(context.Background(), func(n int) bool { return n >= 5 })
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestSignalAwaitWakesOnUpdate(t *testing.T) {
	sig := NewSignal(0)

	go func() {
		time.Sleep(10 * time.Millisecond)
		sig.Set(1)
		time.Sleep(10 * time.Millisecond)
		sig.Set(3)
	}()

	v, err := sig.Await(context.Background(), func(n int) bool { return n >= 3 })
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestSignalAwaitContextCancel(t *testing.T) {
	sig := NewSignal(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // pre-cancel

	_, err := sig.Await(ctx, func(n int) bool { return n > 0 })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSignalAwaitManyWaiters(t *testing.T) {
	const waiters = 8

	sig := NewSignal(0)
	var wg sync.WaitGroup
	wg.Add(waiters)
	for range waiters {
		go func() {
			defer wg.Done()
			v, err := sig.Await(context.Background(), func(n int) bool { return n == 1 })
			assert.NoError(t, err)
			assert.Equal(t, 1, v)
		}()
	}

	time.Sleep(5 * time.Millisecond)
	sig.Set(1)
	wg.Wait()
}
