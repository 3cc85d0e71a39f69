package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusPublishDeliversToSubscriber(t *testing.T) {
	b := NewMemoryBus(0)
	ch, unsub := b.Subscribe(42)
	defer unsub()

	err := b.Publish(Event{Type: EventSeatsReserved, ShowtimeID: 42, SeatIDs: []uint64{7, 8}})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, EventSeatsReserved, ev.Type)
		assert.Equal(t, []uint64{7, 8}, ev.SeatIDs)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestMemoryBusPublishIgnoresOtherShowtimes(t *testing.T) {
	b := NewMemoryBus(0)
	ch, unsub := b.Subscribe(1)
	defer unsub()

	require.NoError(t, b.Publish(Event{Type: EventSeatUpdate, ShowtimeID: 2, SeatID: 5}))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusBackpressureNeverBlocksPublisher(t *testing.T) {
	b := NewMemoryBus(0)
	ch, unsub := b.Subscribe(1)
	defer unsub()

	for i := 0; i < QueueBound+10; i++ {
		err := b.Publish(Event{Type: EventSeatUpdate, ShowtimeID: 1, SeatID: uint64(i)})
		require.NoError(t, err, "publish must never block or error on a full subscriber buffer")
	}

	// A laggard whose buffer filled is disconnected rather than kept
	// silently behind: its channel closes and it drops out of the
	// showtime's subscriber set.
	_, ok := <-ch
	for ok {
		_, ok = <-ch
	}
	assert.Equal(t, 0, b.ConnectionCount(1))
}

func TestMemoryBusUnsubscribeAfterDisconnectIsSafe(t *testing.T) {
	b := NewMemoryBus(0)
	ch, unsub := b.Subscribe(1)

	for i := 0; i < QueueBound+10; i++ {
		require.NoError(t, b.Publish(Event{Type: EventSeatUpdate, ShowtimeID: 1, SeatID: uint64(i)}))
	}
	for ok := true; ok; _, ok = <-ch {
	}

	assert.NotPanics(t, unsub, "unsubscribing a channel the bus already disconnected must not double-close it")
}

func TestMemoryBusConnectionCount(t *testing.T) {
	b := NewMemoryBus(0)
	assert.Equal(t, 0, b.ConnectionCount(9))

	_, unsub1 := b.Subscribe(9)
	_, unsub2 := b.Subscribe(9)
	assert.Equal(t, 2, b.ConnectionCount(9))

	unsub1()
	assert.Equal(t, 1, b.ConnectionCount(9))
	unsub2()
	assert.Equal(t, 0, b.ConnectionCount(9))
}

func TestMemoryBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewMemoryBus(0)
	ch, unsub := b.Subscribe(3)
	unsub()

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}
