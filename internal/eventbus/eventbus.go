package eventbus

import (
	"sync"

	"github.com/upnepa/gridlog/core/model"
)

// subscriberBuffer bounds how many undelivered events a subscriber may
// accumulate before Publish starts dropping for it.
const subscriberBuffer = 16

// Bus fans appended power events out to in-process subscribers. Delivery
// is non-blocking: a subscriber that falls behind drops events rather than
// stalling the writer path.
type Bus struct {
	mu     sync.RWMutex
	subs   map[<-chan model.PowerEvent]chan model.PowerEvent
	closed bool
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{subs: make(map[<-chan model.PowerEvent]chan model.PowerEvent)}
}

// Publish sends the event to all subscribers.
func (b *Bus) Publish(ev model.PowerEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel. The channel
// arrives closed when the bus is already shut down.
func (b *Bus) Subscribe() <-chan model.PowerEvent {
	ch := make(chan model.PowerEvent, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = ch
	return ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown
// subscribers are ignored.
func (b *Bus) Unsubscribe(sub <-chan model.PowerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.subs[sub]
	if !ok {
		return
	}
	delete(b.subs, sub)
	close(ch)
}

// Close closes all subscriber channels and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
