package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Event is one update pushed to connected browsers.
type Event struct {
	Name string
	Data any
}

const subscriberBuffer = 16

// Hub fans channel events out to every open browser connection. Slow
// subscribers drop events rather than stall the channel reader; the page
// re-reads full state on reload, so a dropped frame is not fatal.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan Event
	closed      bool
}

// New returns an empty hub.
func New() *Hub {
	return &Hub{subscribers: make(map[string]chan Event)}
}

// Subscribe registers a new listener and returns its id and event stream.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its stream.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Broadcast delivers an event to every subscriber without blocking.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close drops all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
