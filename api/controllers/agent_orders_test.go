package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/internal/dispatch"
	internalorders "github.com/jrivera-dev/platefleet-backend/internal/orders"
	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
	"github.com/jrivera-dev/platefleet-backend/pkg/pagination"
)

type stubDispatchService struct {
	pool      func(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*dispatch.PoolList, error)
	claim     func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error)
	delivered func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error)
}

func (s *stubDispatchService) Pool(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*dispatch.PoolList, error) {
	if s.pool != nil {
		return s.pool(ctx, actor, params)
	}
	return &dispatch.PoolList{}, nil
}

func (s *stubDispatchService) MyDeliveries(ctx context.Context, actor internalorders.Actor, params pagination.Params, filters internalorders.OrderFilters) (*dispatch.PoolList, error) {
	return &dispatch.PoolList{}, nil
}

func (s *stubDispatchService) Claim(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	if s.claim != nil {
		return s.claim(ctx, orderID, actor)
	}
	return &models.Order{ID: orderID, Status: enums.OrderStatusInTransit}, nil
}

func (s *stubDispatchService) MarkDelivered(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	if s.delivered != nil {
		return s.delivered(ctx, orderID, actor)
	}
	return &models.Order{ID: orderID, Status: enums.OrderStatusDelivered}, nil
}

func TestAgentOrderQueueReturnsPool(t *testing.T) {
	t.Parallel()

	entry := dispatch.PoolEntry{ID: uuid.New(), RestaurantID: uuid.New(), Status: enums.OrderStatusReady, TotalCents: 2500}
	svc := &stubDispatchService{
		pool: func(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*dispatch.PoolList, error) {
			return &dispatch.PoolList{Orders: []dispatch.PoolEntry{entry}}, nil
		},
	}
	handler := AgentOrderQueue(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/orders/queue", nil)
	req = seedActor(req, uuid.New(), enums.ActorRoleAgent, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data dispatch.PoolList `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].ID != entry.ID {
		t.Fatalf("unexpected pool payload: %+v", envelope.Data.Orders)
	}
}

func TestAgentClaimOrderConflict(t *testing.T) {
	t.Parallel()

	svc := &stubDispatchService{
		claim: func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeClaimConflict, "order already claimed")
		},
	}
	handler := AgentClaimOrder(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/orders/x/claim", nil)
	req = seedActor(req, uuid.New(), enums.ActorRoleAgent, nil)
	req = withOrderParam(req, uuid.NewString())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeClaimConflict) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestAgentClaimOrderSuccess(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	handler := AgentClaimOrder(&stubDispatchService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/orders/"+orderID.String()+"/claim", nil)
	req = seedActor(req, uuid.New(), enums.ActorRoleAgent, nil)
	req = withOrderParam(req, orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data transitionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.OrderStatusInTransit) {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestAgentDeliverOrderSuccess(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	handler := AgentDeliverOrder(&stubDispatchService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/orders/"+orderID.String()+"/deliver", nil)
	req = seedActor(req, uuid.New(), enums.ActorRoleAgent, nil)
	req = withOrderParam(req, orderID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data transitionResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.OrderStatusDelivered) {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}
