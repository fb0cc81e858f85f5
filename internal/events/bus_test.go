package events

import (
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventPriceTick, 10)
	defer unsub()

	bus.Publish(EventPriceTick, PriceTick{Market: "KRW-BTC", Price: 50000000})

	select {
	case msg := <-ch:
		if msg.Event != EventPriceTick {
			t.Fatalf("event=%q, expected %q", msg.Event, EventPriceTick)
		}
		tick, ok := msg.Payload.(PriceTick)
		if !ok {
			t.Fatalf("payload type %T, expected PriceTick", msg.Payload)
		}
		if tick.Market != "KRW-BTC" || tick.Price != 50000000 {
			t.Fatalf("tick=%+v", tick)
		}
	case <-time.After(time.Second):
		t.Fatalf("no message delivered")
	}
}

func TestBusPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	_, unsub := bus.Subscribe(EventPriceTick, 1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		// Second publish overflows the buffer; it must drop, not block.
		bus.Publish(EventPriceTick, PriceTick{Price: 1})
		bus.Publish(EventPriceTick, PriceTick{Price: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a full subscriber")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventOrderPlaced, 1)
	unsub()

	if _, open := <-ch; open {
		t.Fatalf("channel still open after unsubscribe")
	}

	// Publishing to an event with no subscribers is a no-op.
	bus.Publish(EventOrderPlaced, "x")
}

func TestBusSubscribersAreIndependentPerEvent(t *testing.T) {
	bus := NewBus()
	ticks, unsubTicks := bus.Subscribe(EventPriceTick, 1)
	defer unsubTicks()
	orders, unsubOrders := bus.Subscribe(EventOrderPlaced, 1)
	defer unsubOrders()

	bus.Publish(EventOrderPlaced, "order")

	select {
	case <-ticks:
		t.Fatalf("tick subscriber received an order event")
	default:
	}

	select {
	case msg := <-orders:
		if msg.Payload != "order" {
			t.Fatalf("payload=%v", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("order subscriber got nothing")
	}
}

func TestBusSubscribeManyMergesEvents(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.SubscribeMany(4, EventPriceTick, EventOrderPlaced)

	bus.Publish(EventPriceTick, PriceTick{Market: "KRW-BTC", Price: 1})
	bus.Publish(EventOrderPlaced, "order")
	bus.Publish(EventOrderRejected, "ignored")

	want := map[Event]bool{EventPriceTick: true, EventOrderPlaced: true}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			if !want[msg.Event] {
				t.Fatalf("unexpected event %q", msg.Event)
			}
			delete(want, msg.Event)
		case <-time.After(time.Second):
			t.Fatalf("merged subscriber got %d of 2 events", i)
		}
	}

	unsub()
	if _, open := <-ch; open {
		t.Fatalf("channel still open after unsubscribe")
	}
	bus.Publish(EventPriceTick, PriceTick{Price: 2})
}
