package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

const (
	TableBills          = "bills"
	TableBillItems      = "bill_items"
	TableFoodItems      = "food_items"
	TableFoodCategories = "food_categories"

	KindInsert = "insert"
	KindUpdate = "update"
	KindDelete = "delete"

	changeChannel = "tandoor:changes"
)

// Event is a coarse change token: it names the table that changed and how,
// never the changed row. Subscribers re-run their own queries.
type Event struct {
	Table string `json:"table"`
	Kind  string `json:"kind"`
}

type Bus interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel of change tokens and a cancel func that
	// releases the subscription and closes the channel.
	Subscribe(ctx context.Context) (<-chan Event, func())
}

// RedisBus fans change tokens out through a single pub/sub channel so every
// running instance sees writes made by any of them.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, changeChannel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ps := b.rdb.Subscribe(ctx, changeChannel)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Printf("events: dropping malformed change token: %v", err)
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = ps.Close() }
}

// MemoryBus is an in-process Bus used in tests and single-instance setups.
type MemoryBus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]chan Event)}
}

func (b *MemoryBus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default: // slow subscriber, token dropped; it re-queries on the next one
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}
