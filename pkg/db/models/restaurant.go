package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Restaurant represents the canonical merchant tenant.
type Restaurant struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string         `gorm:"column:name;not null"`
	Description      *string        `gorm:"column:description"`
	Phone            *string        `gorm:"column:phone"`
	Email            *string        `gorm:"column:email"`
	Address          string         `gorm:"column:address;not null"`
	Cuisines         pq.StringArray `gorm:"column:cuisines;type:text[]"`
	DeliveryFeeCents int            `gorm:"column:delivery_fee_cents;not null;default:0"`
	AcceptingOrders  bool           `gorm:"column:accepting_orders;not null;default:true"`
	OwnerUserID      uuid.UUID      `gorm:"column:owner_user_id;type:uuid;not null;index"`
	LastActiveAt     *time.Time     `gorm:"column:last_active_at"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
