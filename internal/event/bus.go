// Package event is a small in-process pub/sub bus used to fan notification
// batches out to streaming clients.
package event

import "sync"

// subBuffer is the per-subscriber channel depth. A subscriber that falls
// this far behind starts losing events rather than blocking publishers.
const subBuffer = 64

// Bus broadcasts values of type T to any number of subscribers.
type Bus[T any] struct {
	mu   sync.Mutex
	subs map[int]chan T
	next int
}

// New constructs an empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a new subscriber. The returned cancel func removes
// the subscription and closes the channel.
func (b *Bus[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan T, subBuffer)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// Publish delivers v to every subscriber. Never blocks: a subscriber with
// a full buffer misses this event.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// Len returns the current subscriber count.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
