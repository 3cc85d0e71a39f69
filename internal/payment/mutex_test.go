package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Lock(context.Background(), "order-1")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		release2, err := km.Lock(context.Background(), "order-1")
		require.NoError(t, err)
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after release")
	}
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	km := NewKeyedMutex()

	releaseA, err := km.Lock(context.Background(), "order-a")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := km.Lock(context.Background(), "order-b")
		require.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not be blocked")
	}
}

func TestKeyedMutexTimesOutWithErrBusy(t *testing.T) {
	km := NewKeyedMutex()
	release, err := km.Lock(context.Background(), "order-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = km.Lock(ctx, "order-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBusy))
}

func TestKeyedMutexConcurrentDistinctOrdersNeverDeadlock(t *testing.T) {
	km := NewKeyedMutex()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := "order-" + string(rune('a'+n%5))
			release, err := km.Lock(context.Background(), key)
			if err != nil {
				return
			}
			time.Sleep(time.Millisecond)
			release()
		}(i)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock detected")
	}
}
