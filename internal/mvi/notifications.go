package mvi

import "sync"

// DefaultNotificationBuffer is the per-subscriber buffer used when none is given.
const DefaultNotificationBuffer = 16

// Notifications fans one-shot events out to the subscribers present at the
// time of Emit. Nothing is stored, so a late subscriber never sees an event
// emitted before it subscribed.
type Notifications[E any] struct {
	mu     sync.Mutex
	buffer int
	subs   map[chan E]struct{}
	closed bool
}

// NewNotifications builds a fan-out with the given per-subscriber buffer.
func NewNotifications[E any](buffer int) *Notifications[E] {
	if buffer <= 0 {
		buffer = DefaultNotificationBuffer
	}
	return &Notifications[E]{buffer: buffer, subs: make(map[chan E]struct{})}
}

// Subscribe registers a new subscriber.
func (n *Notifications[E]) Subscribe() (<-chan E, func()) {
	ch := make(chan E, n.buffer)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	n.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[ch]; ok {
				delete(n.subs, ch)
				close(ch)
			}
		})
	}
}

// Emit delivers e to every current subscriber without blocking and returns
// how many received it. A subscriber whose buffer is full misses e.
func (n *Notifications[E]) Emit(e E) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return 0
	}
	delivered := 0
	for ch := range n.subs {
		select {
		case ch <- e:
			delivered++
		default:
		}
	}
	return delivered
}

// Close closes all subscriber channels. Later Emits are dropped.
func (n *Notifications[E]) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}
