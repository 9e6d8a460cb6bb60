package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
)

// Order represents a single-restaurant order produced by checkout.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID      uuid.UUID         `gorm:"column:checkout_id;type:uuid;not null;index"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	RestaurantID    uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null;index"`
	AgentID         *uuid.UUID        `gorm:"column:agent_id;type:uuid;index"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending';index"`
	SubtotalCents   int               `gorm:"column:subtotal_cents;not null"`
	DeliveryCents   int               `gorm:"column:delivery_cents;not null;default:0"`
	TotalCents      int               `gorm:"column:total_cents;not null"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null"`
	ContactPhone    string            `gorm:"column:contact_phone;not null"`
	Notes           *string           `gorm:"column:notes"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	AcceptedAt      *time.Time        `gorm:"column:accepted_at"`
	ReadyAt         *time.Time        `gorm:"column:ready_at"`
	ClaimedAt       *time.Time        `gorm:"column:claimed_at"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
