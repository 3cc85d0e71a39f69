package payment

import (
	"context"
	"sync"
	"time"
)

// SettleTimeout bounds how long Settle waits to acquire the per-order
// mutex before giving up with ErrBusy.
const SettleTimeout = 30 * time.Second

// KeyedMutex serializes concurrent Settle calls against the same
// order-id: payment settlement is serialized per order-id via an
// in-process mutex map keyed by order-id. Implemented as a map of
// 1-buffered channels rather than sync.Mutex because acquisition must
// support a timeout.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewKeyedMutex constructs an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]chan struct{})}
}

func (k *KeyedMutex) chanFor(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	ch, ok := k.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		k.locks[key] = ch
	}
	return ch
}

// Lock acquires the lock for key, waiting at most SettleTimeout. It
// returns a release func to call once the critical section is done, or
// ErrBusy if the timeout elapses first.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	ch := k.chanFor(key)
	ctx, cancel := context.WithTimeout(ctx, SettleTimeout)
	defer cancel()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ErrBusy
	}
}
