package server

import (
	"context"
	"sync"

	"github.com/desertthunder/tubetune/internal/engine"
)

// Hub fans engine events out to WebSocket subscribers.
//
// Slow subscribers lose events rather than stall the hub.
type Hub struct {
	mu   sync.Mutex
	subs map[chan engine.Event]struct{}
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan engine.Event]struct{})}
}

// Run forwards events until ctx is done or events closes.
func (h *Hub) Run(ctx context.Context, events <-chan engine.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Broadcast(ev)
		}
	}
}

// Broadcast delivers ev to every subscriber that has room.
func (h *Hub) Broadcast(ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new subscriber. Call the returned func to leave.
func (h *Hub) Subscribe() (<-chan engine.Event, func()) {
	ch := make(chan engine.Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch, sync.OnceFunc(func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	})
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
