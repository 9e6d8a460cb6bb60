package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/api/responses"
	"github.com/jrivera-dev/platefleet-backend/api/validators"
	checkoutsvc "github.com/jrivera-dev/platefleet-backend/internal/checkout"
	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
)

// Checkout handles submission of the customer's cart.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.Role != enums.ActorRoleCustomer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "customer role required for checkout"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.CartItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, checkoutsvc.CartItemInput{
				MenuItemID:   item.MenuItemID,
				RestaurantID: item.RestaurantID,
				Qty:          item.Qty,
				Notes:        item.Notes,
			})
		}

		result, err := svc.Checkout(r.Context(), checkoutsvc.CheckoutInput{
			CustomerID:      actor.UserID,
			Items:           items,
			DeliveryAddress: validators.SanitizeString(payload.DeliveryAddress, 500),
			ContactPhone:    validators.SanitizeString(payload.ContactPhone, 32),
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutRequest struct {
	Items           []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string                `json:"delivery_address" validate:"required"`
	ContactPhone    string                `json:"contact_phone" validate:"required"`
	Notes           *string               `json:"notes,omitempty"`
}

type checkoutItemRequest struct {
	MenuItemID   uuid.UUID `json:"menu_item_id" validate:"required"`
	RestaurantID uuid.UUID `json:"restaurant_id" validate:"required"`
	Qty          int       `json:"qty" validate:"required,gt=0"`
	Notes        *string   `json:"notes,omitempty"`
}

type checkoutResponse struct {
	CheckoutID uuid.UUID               `json:"checkout_id"`
	Orders     []checkoutOrderResponse `json:"orders"`
}

type checkoutOrderResponse struct {
	OrderID       uuid.UUID              `json:"order_id"`
	RestaurantID  uuid.UUID              `json:"restaurant_id"`
	Status        string                 `json:"status"`
	SubtotalCents int                    `json:"subtotal_cents"`
	DeliveryCents int                    `json:"delivery_cents"`
	TotalCents    int                    `json:"total_cents"`
	Items         []checkoutItemResponse `json:"items"`
}

type checkoutItemResponse struct {
	ItemID         uuid.UUID  `json:"item_id"`
	MenuItemID     *uuid.UUID `json:"menu_item_id,omitempty"`
	Name           string     `json:"name"`
	Qty            int        `json:"qty"`
	UnitPriceCents int        `json:"unit_price_cents"`
	TotalCents     int        `json:"total_cents"`
	Notes          *string    `json:"notes,omitempty"`
}

func newCheckoutResponse(result *checkoutsvc.CheckoutResult) checkoutResponse {
	if result == nil {
		return checkoutResponse{}
	}
	orders := make([]checkoutOrderResponse, 0, len(result.Orders))
	for _, order := range result.Orders {
		if order == nil {
			continue
		}
		orders = append(orders, newCheckoutOrderResponse(order))
	}
	return checkoutResponse{
		CheckoutID: result.CheckoutID,
		Orders:     orders,
	}
}

func newCheckoutOrderResponse(order *models.Order) checkoutOrderResponse {
	items := make([]checkoutItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, checkoutItemResponse{
			ItemID:         item.ID,
			MenuItemID:     item.MenuItemID,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
			Notes:          item.Notes,
		})
	}
	return checkoutOrderResponse{
		OrderID:       order.ID,
		RestaurantID:  order.RestaurantID,
		Status:        string(order.Status),
		SubtotalCents: order.SubtotalCents,
		DeliveryCents: order.DeliveryCents,
		TotalCents:    order.TotalCents,
		Items:         items,
	}
}
