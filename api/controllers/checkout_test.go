package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/api/middleware"
	checkoutsvc "github.com/jrivera-dev/platefleet-backend/internal/checkout"
	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
)

type stubCheckoutService struct {
	result *checkoutsvc.CheckoutResult
	err    error
	input  *checkoutsvc.CheckoutInput
}

func (s *stubCheckoutService) Checkout(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	s.input = &input
	return s.result, s.err
}

func seedActor(req *http.Request, userID uuid.UUID, role enums.ActorRole, restaurantID *uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	if restaurantID != nil {
		ctx = middleware.WithRestaurantID(ctx, restaurantID.String())
	}
	return req.WithContext(ctx)
}

func TestCheckoutSuccess(t *testing.T) {
	t.Parallel()

	customerID := uuid.New()
	restaurantID := uuid.New()
	menuItemID := uuid.New()

	result := &checkoutsvc.CheckoutResult{
		CheckoutID: uuid.New(),
		Orders: []*models.Order{
			{
				ID:            uuid.New(),
				RestaurantID:  restaurantID,
				Status:        enums.OrderStatusPending,
				SubtotalCents: 2400,
				DeliveryCents: 300,
				TotalCents:    2400,
				Items: []models.OrderItem{
					{ID: uuid.New(), MenuItemID: &menuItemID, Name: "Pad Thai", Qty: 2, UnitPriceCents: 1200, TotalCents: 2400},
				},
			},
		},
	}

	svc := &stubCheckoutService{result: result}
	handler := Checkout(svc, nil)

	body := `{"items":[{"menu_item_id":"` + menuItemID.String() + `","restaurant_id":"` + restaurantID.String() + `","qty":2}],"delivery_address":"1 Main St","contact_phone":"555-0100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = seedActor(req, customerID, enums.ActorRoleCustomer, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CheckoutID != result.CheckoutID {
		t.Fatalf("unexpected checkout id: %s", envelope.Data.CheckoutID)
	}
	if len(envelope.Data.Orders) != 1 {
		t.Fatalf("expected 1 order got %d", len(envelope.Data.Orders))
	}
	if envelope.Data.Orders[0].TotalCents != 2400 {
		t.Fatalf("unexpected total: %d", envelope.Data.Orders[0].TotalCents)
	}

	if svc.input == nil {
		t.Fatal("service never called")
	}
	if svc.input.CustomerID != customerID {
		t.Fatalf("expected customer %s got %s", customerID, svc.input.CustomerID)
	}
}

func TestCheckoutRejectsNonCustomer(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubCheckoutService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req = seedActor(req, uuid.New(), enums.ActorRoleOwner, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCheckoutRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubCheckoutService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"items":[]}`))
	req = seedActor(req, uuid.New(), enums.ActorRoleCustomer, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutSurfacesEmptyCart(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items")}
	handler := Checkout(svc, nil)

	body := `{"items":[{"menu_item_id":"` + uuid.NewString() + `","restaurant_id":"` + uuid.NewString() + `","qty":1}],"delivery_address":"1 Main St","contact_phone":"555-0100"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req = seedActor(req, uuid.New(), enums.ActorRoleCustomer, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeEmptyCart) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}
