package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
)

// OrderFilters describe the inputs supported by the order lists.
type OrderFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// ItemSummary is the per-item view returned inside an order.
type ItemSummary struct {
	ID             uuid.UUID  `json:"id"`
	MenuItemID     *uuid.UUID `json:"menu_item_id,omitempty"`
	Name           string     `json:"name"`
	UnitPriceCents int        `json:"unit_price_cents"`
	Qty            int        `json:"qty"`
	TotalCents     int        `json:"total_cents"`
	Notes          *string    `json:"notes,omitempty"`
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID              uuid.UUID         `json:"id"`
	CheckoutID      uuid.UUID         `json:"checkout_id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	AgentID         *uuid.UUID        `json:"agent_id,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	SubtotalCents   int               `json:"subtotal_cents"`
	DeliveryCents   int               `json:"delivery_cents"`
	TotalCents      int               `json:"total_cents"`
	DeliveryAddress string            `json:"delivery_address"`
	ItemCount       int               `json:"item_count"`
	CreatedAt       time.Time         `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is the full order view including line items and timestamps.
type OrderDetail struct {
	OrderSummary
	ContactPhone string        `json:"contact_phone"`
	Notes        *string       `json:"notes,omitempty"`
	Items        []ItemSummary `json:"items"`
	AcceptedAt   *time.Time    `json:"accepted_at,omitempty"`
	ReadyAt      *time.Time    `json:"ready_at,omitempty"`
	ClaimedAt    *time.Time    `json:"claimed_at,omitempty"`
	DeliveredAt  *time.Time    `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty"`
}

// CreateItemInput is one requested line in a new order.
type CreateItemInput struct {
	MenuItemID uuid.UUID
	Qty        int
	Notes      *string
}

// CreateOrderInput carries everything needed to persist one restaurant's order.
type CreateOrderInput struct {
	CheckoutID      uuid.UUID
	CustomerID      uuid.UUID
	RestaurantID    uuid.UUID
	Items           []CreateItemInput
	DeliveryAddress string
	ContactPhone    string
	Notes           *string
}

// Actor identifies who is driving a transition.
type Actor struct {
	UserID       uuid.UUID
	Role         enums.ActorRole
	RestaurantID *uuid.UUID
}

// TransitionInput captures a requested lifecycle change.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Actor   Actor
}
