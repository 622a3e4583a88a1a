package events

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const subscriberBuffer = 10

// Hub fans events out to SSE subscribers. A subscriber whose buffer is full
// misses the event; publishers never block.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	closed  bool
	dropped atomic.Int64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

// Subscribe returns a channel of encoded events. It is closed by Unsubscribe
// or Close.
func (h *Hub) Subscribe() chan string {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.clients[ch] = struct{}{}
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

func (h *Hub) Publish(e Event) {
	msg := e.String()

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			if n := h.dropped.Add(1); n%100 == 1 {
				zap.L().Debug("events: slow subscriber, dropping", zap.String("type", e.Type), zap.Int64("dropped_total", n))
			}
		}
	}
}

// Close ends every open stream. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Dropped() int64 { return h.dropped.Load() }
