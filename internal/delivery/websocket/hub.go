package websocket

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autotrader-backend/internal/domain"
)

// subscriberBuffer bounds each observer's queue. When a queue is full the
// event is dropped for that observer only; the publisher never blocks.
const subscriberBuffer = 64

// Hub is the publish/subscribe registry behind the dashboard websocket.
// It implements domain.EventPublisher.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan domain.Event
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]chan domain.Event),
		logger:      logger,
	}
}

// Subscribe registers a new observer and returns its id and event queue.
func (h *Hub) Subscribe() (string, <-chan domain.Event) {
	id := uuid.NewString()
	ch := make(chan domain.Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	return id, ch
}

// Unsubscribe removes an observer and closes its queue.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish fans the event out to every subscriber, best-effort.
func (h *Hub) Publish(event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.logger.Debug("subscriber queue full, event dropped", zap.String("subscriber", id))
		}
	}
}

// SubscriberCount returns the number of connected observers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
