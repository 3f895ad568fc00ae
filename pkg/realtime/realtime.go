// Package realtime fans content changes out to the live widget sessions.
//
// The Hub is a best effort in-process dispatcher: each listener gets its own
// buffered channel and a listener whose buffer is full misses the event.
// Publishers never block on slow websocket clients.
package realtime

import (
	"sync"
	"time"
)

// Event types.
const (
	EventReload = "reload"
)

// Event is delivered to every registered listener.
type Event struct {
	Type  string    `json:"type"`
	Posts int       `json:"posts"`
	At    time.Time `json:"at"`
}

// NewReloadEvent describes a finished content reload.
func NewReloadEvent(posts int, at time.Time) Event {
	return Event{Type: EventReload, Posts: posts, At: at.UTC()}
}

// Hub is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
}

// NewHub returns a hub with the given per listener buffer. Values <= 0 use 32.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a listener. Callers must Unregister the returned id.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers ev to every listener with room in its buffer.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// slow listener
		}
	}
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
