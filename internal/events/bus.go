package events

import "sync"

// Message is the envelope delivered to subscribers. Carrying the event name
// alongside the payload lets one channel stream several event kinds.
type Message struct {
	Event   Event
	Payload any
}

// Bus is a lightweight pub/sub broker using channels. The engine publishes
// ticks, signals and order outcomes; the dashboard websocket subscribes.
type Bus struct {
	mu   sync.RWMutex
	subs map[Event][]chan Message
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Event][]chan Message)}
}

// Subscribe registers a listener for a single event and returns the channel
// and an unsubscribe function.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan Message, func()) {
	return b.SubscribeMany(buffer, e)
}

// SubscribeMany registers one listener channel across several events. The
// returned unsubscribe function removes it from every event and closes it.
func (b *Bus) SubscribeMany(buffer int, evts ...Event) (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, buffer)
	for _, e := range evts {
		b.subs[e] = append(b.subs[e], ch)
	}

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, e := range evts {
			subs := b.subs[e]
			for i, c := range subs {
				if c == ch {
					b.subs[e] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
		}
		close(ch)
	}

	return ch, unsub
}

// Publish fan-outs the payload to subscribers without blocking the trading
// loop; slow subscribers drop messages.
func (b *Bus) Publish(e Event, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[e] {
		select {
		case ch <- Message{Event: e, Payload: payload}:
		default:
		}
	}
}
