package controllers

import (
	"net/http"

	"github.com/jrivera-dev/platefleet-backend/api/responses"
	"github.com/jrivera-dev/platefleet-backend/api/validators"
	internalorders "github.com/jrivera-dev/platefleet-backend/internal/orders"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
	"github.com/jrivera-dev/platefleet-backend/pkg/logger"
)

// AdminTransitionOrder applies any legal lifecycle edge on behalf of an operator.
func AdminTransitionOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.Role != enums.ActorRoleAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
			return
		}

		orderID, err := orderIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status").WithDetails(map[string]any{"status": payload.Status}))
			return
		}

		order, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			OrderID: orderID,
			Target:  target,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newTransitionResponse(order.ID.String(), string(order.Status)))
	}
}
