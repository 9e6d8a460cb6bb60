package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
	"github.com/jrivera-dev/platefleet-backend/pkg/outbox"
	"github.com/jrivera-dev/platefleet-backend/pkg/outbox/payloads"
	"github.com/jrivera-dev/platefleet-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// MenuReader resolves restaurants and menu items when an order is created.
type MenuReader interface {
	FindRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID) (*models.Restaurant, error)
	FindItems(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]models.MenuItem, error)
}

// Service defines the lifecycle operations on orders.
type Service interface {
	CreateTx(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListRestaurantOrders(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListAgentOrders(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Claim(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	menu   MenuReader
	logg   *logger.Logger
}

// NewService builds the order lifecycle service with its dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, menu MenuReader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if menu == nil {
		return nil, fmt.Errorf("menu reader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		menu:   menu,
		logg:   logg,
	}, nil
}

// CreateTx persists one restaurant's order inside a caller-owned transaction.
// Prices and totals are recomputed from the menu; client-supplied amounts are
// never trusted.
func (s *service) CreateTx(ctx context.Context, tx *gorm.DB, input CreateOrderInput) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.CheckoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "order has no items")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}
	if input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}

	itemIDs := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		itemIDs = append(itemIDs, item.MenuItemID)
	}

	menuItems, err := s.menu.FindItems(ctx, tx, input.RestaurantID, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
	}

	repo := s.repo.WithTx(tx)

	subtotal := 0
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	for position, item := range input.Items {
		menuItem, ok := menuItems[item.MenuItemID]
		if !ok || !menuItem.Available {
			return nil, pkgerrors.New(pkgerrors.CodeItemUnavailable, "menu item unavailable").
				WithDetails(map[string]any{"menu_item_id": item.MenuItemID})
		}
		lineTotal := menuItem.PriceCents * item.Qty
		subtotal += lineTotal
		menuItemID := menuItem.ID
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID:     &menuItemID,
			Name:           menuItem.Name,
			UnitPriceCents: menuItem.PriceCents,
			Qty:            item.Qty,
			TotalCents:     lineTotal,
			Position:       position,
			Notes:          item.Notes,
		})
	}

	deliveryCents, err := s.deliveryFee(ctx, tx, input.RestaurantID)
	if err != nil {
		return nil, err
	}

	// The order total is always the recomputed line-item sum. The delivery
	// fee is quoted alongside it as display metadata and never folded in.
	order := &models.Order{
		CheckoutID:      input.CheckoutID,
		CustomerID:      input.CustomerID,
		RestaurantID:    input.RestaurantID,
		Status:          enums.OrderStatusPending,
		SubtotalCents:   subtotal,
		DeliveryCents:   deliveryCents,
		TotalCents:      subtotal,
		DeliveryAddress: input.DeliveryAddress,
		ContactPhone:    input.ContactPhone,
		Notes:           input.Notes,
	}
	if _, err := repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	if err := repo.CreateItems(ctx, orderItems); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
	}
	order.Items = orderItems

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor: &outbox.ActorRef{
			UserID: input.CustomerID,
			Role:   enums.ActorRoleCustomer.String(),
		},
		Data: payloads.OrderCreatedEvent{
			OrderID:      order.ID,
			CheckoutID:   order.CheckoutID,
			CustomerID:   order.CustomerID,
			RestaurantID: order.RestaurantID,
			TotalCents:   order.TotalCents,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order created event")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created")
	return order, nil
}

func (s *service) deliveryFee(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID) (int, error) {
	restaurant, err := s.menu.FindRestaurant(ctx, tx, restaurantID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	if !restaurant.AcceptingOrders {
		return 0, pkgerrors.New(pkgerrors.CodeItemUnavailable, "restaurant is not accepting orders")
	}
	return restaurant.DeliveryFeeCents, nil
}

func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if !canViewOrder(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order is not visible to this actor")
	}
	return buildOrderDetail(order), nil
}

// canViewOrder restricts reads to the order's participants. Agents may also
// see unclaimed ready orders since those appear in the delivery pool.
func canViewOrder(order *models.Order, actor Actor) bool {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleCustomer:
		return order.CustomerID == actor.UserID
	case enums.ActorRoleOwner:
		return actor.RestaurantID != nil && *actor.RestaurantID == order.RestaurantID
	case enums.ActorRoleAgent:
		if order.AgentID != nil && *order.AgentID == actor.UserID {
			return true
		}
		return order.Status == enums.OrderStatusReady && order.AgentID == nil
	}
	return false
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, next, err := s.repo.ListByCustomer(ctx, customerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return buildOrderList(orders, next), nil
}

func (s *service) ListRestaurantOrders(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "restaurant context missing")
	}
	orders, next, err := s.repo.ListByRestaurant(ctx, restaurantID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list restaurant orders")
	}
	return buildOrderList(orders, next), nil
}

func (s *service) ListAgentOrders(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, next, err := s.repo.ListByAgent(ctx, agentID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agent orders")
	}
	return buildOrderList(orders, next), nil
}

// Transition drives the order through one lifecycle edge. The status update is
// conditional on the expected source status so two racing callers cannot both
// succeed.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status")
	}
	if input.Target == enums.OrderStatusInTransit && input.Actor.Role == enums.ActorRoleAgent {
		return s.Claim(ctx, input.OrderID, input.Actor)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		actorCtx := buildActorContext(order, input.Actor)
		if err := Authorize(order.Status, input.Target, actorCtx); err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := timestampUpdates(input.Target, now)
		ok, err := repo.UpdateStatusWhere(ctx, order.ID, order.Status, input.Target, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order changed concurrently")
		}

		from := order.Status
		order.Status = input.Target
		applyTimestamp(order, input.Target, now)

		if err := s.emitStatusChanged(ctx, tx, order, from, input.Actor, now); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   updated.ID.String(),
		"to_status":  updated.Status.String(),
		"actor_role": input.Actor.Role.String(),
	})
	s.logg.Info(logCtx, "order transitioned")
	return updated, nil
}

// Claim races the agent against every other claimer. Exactly one conditional
// update wins; losers get a claim conflict.
func (s *service) Claim(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if actor.Role != enums.ActorRoleAgent && actor.Role != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only delivery agents can claim orders")
	}

	var claimed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		now := time.Now().UTC()
		ok, err := repo.ClaimWhereReady(ctx, orderID, actor.UserID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeClaimConflict, "order already claimed or not ready")
		}

		from := order.Status
		agentID := actor.UserID
		order.Status = enums.OrderStatusInTransit
		order.AgentID = &agentID
		order.ClaimedAt = &now

		if err := s.emitStatusChanged(ctx, tx, order, from, actor, now); err != nil {
			return err
		}
		claimed = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithUserID(s.logg.WithOrderID(ctx, claimed.ID.String()), actor.UserID.String())
	s.logg.Info(logCtx, "order claimed")
	return claimed, nil
}

// ExpireStalePending cancels pending orders older than the cutoff. Each order
// moves through its own transaction so one failure does not block the batch.
func (s *service) ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	stale, err := s.repo.FindPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale pending orders")
	}

	expired := 0
	for _, order := range stale {
		order := order
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			now := time.Now().UTC()
			ok, err := repo.UpdateStatusWhere(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, map[string]any{"cancelled_at": now})
			if err != nil {
				return err
			}
			if !ok {
				// Raced with a real transition; nothing to do.
				return nil
			}

			event := outbox.DomainEvent{
				EventType:     enums.EventOrderExpired,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Version:       1,
				Data: payloads.OrderExpiredEvent{
					OrderID:      order.ID,
					CustomerID:   order.CustomerID,
					RestaurantID: order.RestaurantID,
					ExpiredAt:    now,
					PendingFor:   now.Sub(order.CreatedAt).Round(time.Second).String(),
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			return expired, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire pending order")
		}
	}
	return expired, nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, actor Actor, at time.Time) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor: &outbox.ActorRef{
			UserID:       actor.UserID,
			RestaurantID: actor.RestaurantID,
			Role:         actor.Role.String(),
		},
		Data: payloads.OrderStatusChangedEvent{
			OrderID:      order.ID,
			CustomerID:   order.CustomerID,
			RestaurantID: order.RestaurantID,
			AgentID:      order.AgentID,
			FromStatus:   from,
			ToStatus:     order.Status,
			ActorRole:    actor.Role,
			ChangedAt:    at,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue status changed event")
	}
	return nil
}

func buildActorContext(order *models.Order, actor Actor) ActorContext {
	return ActorContext{
		Role:            actor.Role,
		IsOrderCustomer: order.CustomerID == actor.UserID,
		OwnsRestaurant:  actor.RestaurantID != nil && *actor.RestaurantID == order.RestaurantID,
		IsAssignedAgent: order.AgentID != nil && *order.AgentID == actor.UserID,
	}
}

func timestampUpdates(target enums.OrderStatus, now time.Time) map[string]any {
	switch target {
	case enums.OrderStatusPreparing:
		return map[string]any{"accepted_at": now}
	case enums.OrderStatusReady:
		return map[string]any{"ready_at": now}
	case enums.OrderStatusDelivered:
		return map[string]any{"delivered_at": now}
	case enums.OrderStatusCancelled:
		return map[string]any{"cancelled_at": now}
	}
	return nil
}

func applyTimestamp(order *models.Order, target enums.OrderStatus, now time.Time) {
	switch target {
	case enums.OrderStatusPreparing:
		order.AcceptedAt = &now
	case enums.OrderStatusReady:
		order.ReadyAt = &now
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	}
}

func buildOrderList(orders []models.Order, next *pagination.Cursor) *OrderList {
	list := &OrderList{Orders: make([]OrderSummary, 0, len(orders))}
	for i := range orders {
		list.Orders = append(list.Orders, buildOrderSummary(&orders[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}

func buildOrderSummary(order *models.Order) OrderSummary {
	return OrderSummary{
		ID:              order.ID,
		CheckoutID:      order.CheckoutID,
		CustomerID:      order.CustomerID,
		RestaurantID:    order.RestaurantID,
		AgentID:         order.AgentID,
		Status:          order.Status,
		SubtotalCents:   order.SubtotalCents,
		DeliveryCents:   order.DeliveryCents,
		TotalCents:      order.TotalCents,
		DeliveryAddress: order.DeliveryAddress,
		ItemCount:       len(order.Items),
		CreatedAt:       order.CreatedAt,
	}
}

func buildOrderDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		OrderSummary: buildOrderSummary(order),
		ContactPhone: order.ContactPhone,
		Notes:        order.Notes,
		AcceptedAt:   order.AcceptedAt,
		ReadyAt:      order.ReadyAt,
		ClaimedAt:    order.ClaimedAt,
		DeliveredAt:  order.DeliveredAt,
		CancelledAt:  order.CancelledAt,
	}
	detail.Items = make([]ItemSummary, 0, len(order.Items))
	for _, item := range order.Items {
		detail.Items = append(detail.Items, ItemSummary{
			ID:             item.ID,
			MenuItemID:     item.MenuItemID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.TotalCents,
			Notes:          item.Notes,
		})
	}
	return detail
}
