package events

import (
	"sync"
)

// Bus fans published events out to every subscriber in publish order.
// Publish blocks until each subscriber has buffer space, the subscriber
// unsubscribes, or the bus is closed.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscription
	nextID      uint64

	closeOnce sync.Once
	closeCh   chan struct{}
}

type subscription struct {
	ch       chan Event
	done     chan struct{}
	doneOnce sync.Once
}

func NewBus() *Bus {
	return &Bus{
		subscribers: map[uint64]*subscription{},
		closeCh:     make(chan struct{}),
	}
}

// Subscribe registers a new subscriber. The returned channel is closed when
// the subscriber unsubscribes or the bus is closed.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 0 {
		buffer = 0
	}
	sub := &subscription{ch: make(chan Event, buffer), done: make(chan struct{})}

	b.mu.Lock()
	select {
	case <-b.closeCh:
		b.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	default:
	}
	id := b.nextID
	b.nextID++
	b.subscribers[id] = sub
	b.mu.Unlock()

	return sub.ch, func() { b.unsubscribe(id, sub) }
}

func (b *Bus) unsubscribe(id uint64, sub *subscription) {
	sub.doneOnce.Do(func() { close(sub.done) })

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(sub.ch)
	}
}

// Publish delivers event to all current subscribers. It reports false when
// the bus is closed.
func (b *Bus) Publish(event Event) bool {
	if b == nil || event == nil {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.closeCh:
		return false
	default:
	}

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- event:
		case <-sub.done:
		case <-b.closeCh:
			return false
		}
	}
	return true
}

// Close releases every subscriber. It is safe to call more than once.
func (b *Bus) Close() {
	if b == nil {
		return
	}

	b.closeOnce.Do(func() {
		close(b.closeCh)

		b.mu.Lock()
		defer b.mu.Unlock()
		for id, sub := range b.subscribers {
			sub.doneOnce.Do(func() { close(sub.done) })
			close(sub.ch)
			delete(b.subscribers, id)
		}
	})
}
