package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jrivera-dev/platefleet-backend/internal/orders"
	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderCreator interface {
	CreateTx(ctx context.Context, tx *gorm.DB, input orders.CreateOrderInput) (*models.Order, error)
}

// CheckoutInput is the full cart submission.
type CheckoutInput struct {
	CustomerID      uuid.UUID
	Items           []CartItemInput
	DeliveryAddress string
	ContactPhone    string
	Notes           *string
}

// CheckoutResult reports the orders produced from one cart.
type CheckoutResult struct {
	CheckoutID uuid.UUID       `json:"checkout_id"`
	Orders     []*models.Order `json:"orders"`
}

// Service splits a cart into per-restaurant orders.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	tx     txRunner
	orders orderCreator
	logg   *logger.Logger
}

// NewService builds the checkout service with its dependencies.
func NewService(tx txRunner, orderSvc orderCreator, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, orders: orderSvc, logg: logg}, nil
}

// Checkout creates one order per restaurant partition. Each partition commits
// in its own transaction; the first failure stops the run, but orders already
// committed stay committed.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if input.DeliveryAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	for _, item := range input.Items {
		if item.MenuItemID == uuid.Nil || item.RestaurantID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item and restaurant ids required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	checkoutID := uuid.New()
	partitions := SplitCart(input.Items)
	result := &CheckoutResult{
		CheckoutID: checkoutID,
		Orders:     make([]*models.Order, 0, len(partitions)),
	}

	for _, partition := range partitions {
		orderInput := orders.CreateOrderInput{
			CheckoutID:      checkoutID,
			CustomerID:      input.CustomerID,
			RestaurantID:    partition.RestaurantID,
			DeliveryAddress: input.DeliveryAddress,
			ContactPhone:    input.ContactPhone,
			Notes:           input.Notes,
			Items:           make([]orders.CreateItemInput, 0, len(partition.Items)),
		}
		for _, item := range partition.Items {
			orderInput.Items = append(orderInput.Items, orders.CreateItemInput{
				MenuItemID: item.MenuItemID,
				Qty:        item.Qty,
				Notes:      item.Notes,
			})
		}

		var created *models.Order
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.orders.CreateTx(ctx, tx, orderInput)
			if err != nil {
				return err
			}
			created = order
			return nil
		})
		if err != nil {
			if len(result.Orders) > 0 {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"checkout_id":      checkoutID.String(),
					"committed_orders": len(result.Orders),
				})
				s.logg.Warn(logCtx, "checkout failed after partial commit")
			}
			return nil, err
		}
		result.Orders = append(result.Orders, created)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"checkout_id": checkoutID.String(),
		"order_count": len(result.Orders),
	})
	s.logg.Info(logCtx, "checkout completed")
	return result, nil
}
