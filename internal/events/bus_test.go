package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	ch1, cancel1 := bus.Subscribe(ctx)
	defer cancel1()
	ch2, cancel2 := bus.Subscribe(ctx)
	defer cancel2()

	want := Event{Table: TableBills, Kind: KindUpdate}
	require.NoError(t, bus.Publish(ctx, want))

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for change token")
		}
	}
}

func TestMemoryBusCancelStopsDelivery(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	ch, cancel := bus.Subscribe(ctx)
	cancel()

	_, open := <-ch
	assert.False(t, open, "channel closes on cancel")

	// Publishing after cancel must not panic or block.
	require.NoError(t, bus.Publish(ctx, Event{Table: TableFoodItems, Kind: KindDelete}))

	// Cancel is safe to call twice.
	cancel()
}

func TestMemoryBusDropsTokensForSlowSubscriber(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	ch, cancel := bus.Subscribe(ctx)
	defer cancel()

	// Fill the buffer and then some; Publish must never block.
	for i := 0; i < 64; i++ {
		require.NoError(t, bus.Publish(ctx, Event{Table: TableBillItems, Kind: KindInsert}))
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			assert.Equal(t, 16, received, "buffered tokens only, the rest dropped")
			return
		}
	}
}
