// Package mvi holds the small runtime the screen reducers are built on: an
// observable state cell, a one-shot notification fan-out and the executors
// that decide where fetches run and where their results are applied.
package mvi

import "sync"

// StateCell is a versioned observable value. Subscribers always see the
// latest value; a slow subscriber skips intermediate versions.
type StateCell[S any] struct {
	mu      sync.Mutex
	value   S
	version uint64
	subs    map[chan S]struct{}
	closed  bool
}

// NewStateCell returns a cell holding initial at version 1.
func NewStateCell[S any](initial S) *StateCell[S] {
	return &StateCell[S]{value: initial, version: 1, subs: make(map[chan S]struct{})}
}

// Get returns the current value.
func (c *StateCell[S]) Get() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Version increases by one on every Update.
func (c *StateCell[S]) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Update replaces the value with fn(current) and publishes it. Updates after
// Close are dropped.
func (c *StateCell[S]) Update(fn func(S) S) S {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.value
	}
	c.value = fn(c.value)
	c.version++
	for ch := range c.subs {
		offerLatest(ch, c.value)
	}
	return c.value
}

// Subscribe returns a channel that first yields the current value and then
// each newer one. The returned func unsubscribes and closes the channel.
func (c *StateCell[S]) Subscribe() (<-chan S, func()) {
	ch := make(chan S, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- c.value
	c.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

// Close closes every subscriber channel. The last value stays readable via Get.
func (c *StateCell[S]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
}

// offerLatest replaces whatever is buffered in ch with v. Only the holder of
// the cell lock sends, so the send after the drain cannot block.
func offerLatest[S any](ch chan S, v S) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
