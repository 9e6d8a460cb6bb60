package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jrivera-dev/platefleet-backend/api/middleware"
	internalorders "github.com/jrivera-dev/platefleet-backend/internal/orders"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
)

// actorFromRequest rebuilds the acting identity seeded by the auth middleware.
func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor role missing")
	}

	actor := internalorders.Actor{UserID: userID, Role: role}
	if raw := middleware.RestaurantIDFromContext(r.Context()); raw != "" {
		restaurantID, err := uuid.Parse(raw)
		if err != nil {
			return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "restaurant identity malformed")
		}
		actor.RestaurantID = &restaurantID
	}
	return actor, nil
}

func orderIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderId")
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a uuid").WithDetails(map[string]any{"order_id": raw})
	}
	return orderID, nil
}
