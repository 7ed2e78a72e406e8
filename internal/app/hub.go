package app

import (
	"sync"

	"github.com/emmett/affect/internal/affect"
)

// Hub keeps the latest result and fans results out to subscribers. Slow
// subscribers miss results rather than stall the pipeline.
type Hub struct {
	mu     sync.RWMutex
	latest affect.Result
	has    bool
	subs   map[chan affect.Result]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[chan affect.Result]struct{})}
}

// Emit implements affect.Sink
func (h *Hub) Emit(r affect.Result) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = r
	h.has = true
	for ch := range h.subs {
		select {
		case ch <- r:
		default:
		}
	}
	return nil
}

// Latest returns the most recent result, if any
func (h *Hub) Latest() (affect.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.has
}

// Subscribe returns a channel of future results and a function that
// unsubscribes and closes it
func (h *Hub) Subscribe(buffer int) (<-chan affect.Result, func()) {
	ch := make(chan affect.Result, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}
