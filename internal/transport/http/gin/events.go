package httpgin

import (
	"context"
	"sync"

	"github.com/kirinyoku/tix-gate/internal/domain"
)

// EventHub fans change events received from one redis subscription out
// to every connected SSE client.
type EventHub struct {
	mu      sync.RWMutex
	clients map[chan domain.ChangeEvent]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[chan domain.ChangeEvent]struct{})}
}

// Subscribe registers a client until ctx is done. The returned channel is
// closed on removal.
func (h *EventHub) Subscribe(ctx context.Context) <-chan domain.ChangeEvent {
	ch := make(chan domain.ChangeEvent, 16)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.clients, ch)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Broadcast never blocks; a client with a full buffer misses the event.
func (h *EventHub) Broadcast(_ context.Context, ev domain.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
