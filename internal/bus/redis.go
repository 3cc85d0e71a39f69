package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus fans events out through Redis pub/sub so multiple API
// instances observe the same seat-state changes, grounded on
// kirinyoku-tix-go's internal/redis/pubsub.go EventsPubSub type.
type RedisBus struct {
	client *redis.Client

	mu         sync.Mutex
	subs       map[uint64]*redisSubGroup
	queueBound int
}

type redisSubGroup struct {
	pubsub *redis.PubSub
	chans  map[chan Event]struct{}
}

// NewRedisBus constructs a RedisBus over an existing client. queueBound
// of zero or less defaults to QueueBound.
func NewRedisBus(client *redis.Client, queueBound int) *RedisBus {
	if queueBound <= 0 {
		queueBound = QueueBound
	}
	return &RedisBus{client: client, subs: make(map[uint64]*redisSubGroup), queueBound: queueBound}
}

func channelName(showtimeID uint64) string {
	return fmt.Sprintf("seat-events:%d", showtimeID)
}

// Publish marshals the event as JSON and publishes it on the
// showtime's channel.
func (b *RedisBus) Publish(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(context.Background(), channelName(event.ShowtimeID), payload).Err()
}

// Subscribe lazily opens one Redis subscription per showtime and fans
// its messages out to every local Go channel subscribed to it, so N
// local subscribers of the same showtime share a single Redis
// connection (mirroring EventsPubSub.Subscribe's use of
// redis.WithChannelSize(256)).
func (b *RedisBus) Subscribe(showtimeID uint64) (<-chan Event, func()) {
	ch := make(chan Event, b.queueBound)

	b.mu.Lock()
	group, ok := b.subs[showtimeID]
	if !ok {
		pubsub := b.client.Subscribe(context.Background(), channelName(showtimeID))
		group = &redisSubGroup{pubsub: pubsub, chans: make(map[chan Event]struct{})}
		b.subs[showtimeID] = group
		go b.pump(showtimeID, group)
	}
	group.chans[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		g, ok := b.subs[showtimeID]
		if !ok {
			return
		}
		if _, live := g.chans[ch]; live {
			delete(g.chans, ch)
			close(ch)
		}
		if len(g.chans) == 0 {
			_ = g.pubsub.Close()
			delete(b.subs, showtimeID)
		}
	}
	return ch, unsub
}

// pump relays one showtime's Redis messages to every local subscriber
// channel, disconnecting any whose buffer is already full rather than
// leaving it silently behind.
func (b *RedisBus) pump(showtimeID uint64, group *redisSubGroup) {
	redisCh := group.pubsub.Channel(redis.WithChannelSize(256))
	for msg := range redisCh {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			continue
		}
		b.mu.Lock()
		var laggards []chan Event
		for ch := range group.chans {
			select {
			case ch <- event:
			default:
				laggards = append(laggards, ch)
			}
		}
		for _, ch := range laggards {
			delete(group.chans, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
}
