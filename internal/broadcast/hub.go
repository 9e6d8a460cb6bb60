package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
)

// Event is the dispatch notification fanned out to connected clients.
type Event struct {
	EventID      string                `json:"event_id"`
	EventType    enums.OutboxEventType `json:"event_type"`
	OrderID      uuid.UUID             `json:"order_id"`
	CustomerID   uuid.UUID             `json:"customer_id"`
	RestaurantID uuid.UUID             `json:"restaurant_id"`
	AgentID      *uuid.UUID            `json:"agent_id,omitempty"`
	ToStatus     enums.OrderStatus     `json:"to_status,omitempty"`
	OccurredAt   time.Time             `json:"occurred_at"`
	Payload      json.RawMessage       `json:"payload,omitempty"`
}

// Identity scopes which events a subscriber receives.
type Identity struct {
	UserID       uuid.UUID
	Role         enums.ActorRole
	RestaurantID *uuid.UUID
}

// Subscription is one connected client's event stream.
type Subscription struct {
	ID       uuid.UUID
	Identity Identity
	Events   <-chan Event

	ch chan Event
}

// Hub fans dispatch events out to in-process subscribers. Delivery is best
// effort: a subscriber that cannot keep up loses events rather than blocking
// the rest.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]*Subscription
	buffer      int
	logg        *logger.Logger
}

// NewHub builds a hub whose subscriber channels hold up to buffer events.
func NewHub(buffer int, logg *logger.Logger) (*Hub, error) {
	if buffer <= 0 {
		return nil, fmt.Errorf("subscriber buffer must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Hub{
		subscribers: make(map[uuid.UUID]*Subscription),
		buffer:      buffer,
		logg:        logg,
	}, nil
}

// Subscribe registers a client and returns its event stream.
func (h *Hub) Subscribe(identity Identity) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{
		ID:       uuid.New(),
		Identity: identity,
		Events:   ch,
		ch:       ch,
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the client and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}

// SubscriberCount reports how many clients are connected.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish delivers the event to every subscriber whose scope matches. Full
// channels are skipped.
func (h *Hub) Publish(ctx context.Context, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, sub := range h.subscribers {
		if !matches(sub.Identity, event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			dropped++
		}
	}

	if dropped > 0 {
		logCtx := h.logg.WithFields(ctx, map[string]any{
			"event_id": event.EventID,
			"dropped":  dropped,
		})
		h.logg.Warn(logCtx, "subscribers behind, events dropped")
	}
}

// matches decides visibility per role. Agents additionally see every order
// that becomes ready, since any of them may claim it.
func matches(identity Identity, event Event) bool {
	switch identity.Role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleCustomer:
		return event.CustomerID == identity.UserID
	case enums.ActorRoleOwner:
		return identity.RestaurantID != nil && *identity.RestaurantID == event.RestaurantID
	case enums.ActorRoleAgent:
		if event.AgentID != nil && *event.AgentID == identity.UserID {
			return true
		}
		return event.ToStatus == enums.OrderStatusReady
	}
	return false
}
