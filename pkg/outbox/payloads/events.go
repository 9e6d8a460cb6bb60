package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
)

// OrderCreatedEvent signals a new order produced by checkout.
type OrderCreatedEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	CheckoutID   uuid.UUID `json:"checkout_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	TotalCents   int       `json:"total_cents"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	RestaurantID uuid.UUID         `json:"restaurant_id"`
	AgentID      *uuid.UUID        `json:"agent_id,omitempty"`
	FromStatus   enums.OrderStatus `json:"from_status"`
	ToStatus     enums.OrderStatus `json:"to_status"`
	ActorRole    enums.ActorRole   `json:"actor_role"`
	ChangedAt    time.Time         `json:"changed_at"`
}

// OrderExpiredEvent describes the payload when stale pending orders are cancelled.
type OrderExpiredEvent struct {
	OrderID      uuid.UUID `json:"orderId"`
	CustomerID   uuid.UUID `json:"customerId"`
	RestaurantID uuid.UUID `json:"restaurantId"`
	ExpiredAt    time.Time `json:"expiredAt"`
	PendingFor   string    `json:"pendingFor,omitempty"`
}
