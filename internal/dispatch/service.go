package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/internal/orders"
	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
	"github.com/jrivera-dev/platefleet-backend/pkg/pagination"
)

type poolReader interface {
	ListClaimable(ctx context.Context, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters orders.OrderFilters) ([]models.Order, *pagination.Cursor, error)
}

type orderClaimer interface {
	Claim(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error)
	Transition(ctx context.Context, input orders.TransitionInput) (*models.Order, error)
}

// Service is the delivery-agent facing view of the order pool.
type Service interface {
	Pool(ctx context.Context, actor orders.Actor, params pagination.Params) (*PoolList, error)
	MyDeliveries(ctx context.Context, actor orders.Actor, params pagination.Params, filters orders.OrderFilters) (*PoolList, error)
	Claim(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error)
}

// PoolEntry is the slimmed-down order view shown to agents. Customer contact
// details stay hidden until the agent owns the delivery.
type PoolEntry struct {
	ID              uuid.UUID         `json:"id"`
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	Status          enums.OrderStatus `json:"status"`
	TotalCents      int               `json:"total_cents"`
	DeliveryCents   int               `json:"delivery_cents"`
	DeliveryAddress string            `json:"delivery_address"`
	ReadyAt         *time.Time        `json:"ready_at,omitempty"`
}

// PoolList wraps pool entries plus the next page cursor.
type PoolList struct {
	Orders     []PoolEntry `json:"orders"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

type service struct {
	pool    poolReader
	claimer orderClaimer
	logg    *logger.Logger
}

// NewService builds the dispatch service with its dependencies.
func NewService(pool poolReader, claimer orderClaimer, logg *logger.Logger) (Service, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool reader required")
	}
	if claimer == nil {
		return nil, fmt.Errorf("order claimer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{pool: pool, claimer: claimer, logg: logg}, nil
}

// Pool lists ready, unassigned orders oldest first.
func (s *service) Pool(ctx context.Context, actor orders.Actor, params pagination.Params) (*PoolList, error) {
	if err := requireAgent(actor); err != nil {
		return nil, err
	}

	rows, next, err := s.pool.ListClaimable(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claimable orders")
	}
	return buildPoolList(rows, next), nil
}

// MyDeliveries lists the orders assigned to the calling agent.
func (s *service) MyDeliveries(ctx context.Context, actor orders.Actor, params pagination.Params, filters orders.OrderFilters) (*PoolList, error) {
	if err := requireAgent(actor); err != nil {
		return nil, err
	}

	rows, next, err := s.pool.ListByAgent(ctx, actor.UserID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agent deliveries")
	}
	return buildPoolList(rows, next), nil
}

// Claim attempts to take the order for this agent. Exactly one of any number
// of concurrent callers succeeds.
func (s *service) Claim(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error) {
	if err := requireAgent(actor); err != nil {
		return nil, err
	}
	return s.claimer.Claim(ctx, orderID, actor)
}

// MarkDelivered completes the delivery for the assigned agent.
func (s *service) MarkDelivered(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error) {
	if err := requireAgent(actor); err != nil {
		return nil, err
	}
	return s.claimer.Transition(ctx, orders.TransitionInput{
		OrderID: orderID,
		Target:  enums.OrderStatusDelivered,
		Actor:   actor,
	})
}

func requireAgent(actor orders.Actor) error {
	if actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.Role != enums.ActorRoleAgent && actor.Role != enums.ActorRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "agent role required")
	}
	return nil
}

func buildPoolList(rows []models.Order, next *pagination.Cursor) *PoolList {
	list := &PoolList{Orders: make([]PoolEntry, 0, len(rows))}
	for i := range rows {
		order := &rows[i]
		list.Orders = append(list.Orders, PoolEntry{
			ID:              order.ID,
			RestaurantID:    order.RestaurantID,
			Status:          order.Status,
			TotalCents:      order.TotalCents,
			DeliveryCents:   order.DeliveryCents,
			DeliveryAddress: order.DeliveryAddress,
			ReadyAt:         order.ReadyAt,
		})
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}
