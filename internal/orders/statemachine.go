package orders

import (
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
)

// ActorContext describes the relationship between the caller and an order.
type ActorContext struct {
	Role            enums.ActorRole
	IsOrderCustomer bool
	OwnsRestaurant  bool
	IsAssignedAgent bool
}

type transitionEdge struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

// allowedEdges enumerates every legal lifecycle transition.
var allowedEdges = map[transitionEdge]struct{}{
	{enums.OrderStatusPending, enums.OrderStatusPreparing}:   {},
	{enums.OrderStatusPending, enums.OrderStatusCancelled}:   {},
	{enums.OrderStatusPreparing, enums.OrderStatusReady}:     {},
	{enums.OrderStatusPreparing, enums.OrderStatusCancelled}: {},
	{enums.OrderStatusReady, enums.OrderStatusInTransit}:     {},
	{enums.OrderStatusInTransit, enums.OrderStatusDelivered}: {},
	{enums.OrderStatusInTransit, enums.OrderStatusCancelled}: {},
}

// EdgeAllowed reports whether the lifecycle permits moving from one status to another.
func EdgeAllowed(from, to enums.OrderStatus) bool {
	_, ok := allowedEdges[transitionEdge{from: from, to: to}]
	return ok
}

// Authorize validates that the actor may perform the given transition. The
// edge must already be legal; terminal states never transition again.
func Authorize(from, to enums.OrderStatus, actor ActorContext) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order is in a terminal state")
	}
	if !EdgeAllowed(from, to) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "transition not allowed")
	}

	if actor.Role == enums.ActorRoleAdmin {
		// Claiming stays agent-only even for admins: the claim path is the
		// sole writer of agent_id, and an order moved to in_transit without
		// an agent could never be delivered.
		if from == enums.OrderStatusReady && to == enums.OrderStatusInTransit {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only an agent may claim a ready order")
		}
		return nil
	}

	switch (transitionEdge{from: from, to: to}) {
	case transitionEdge{enums.OrderStatusPending, enums.OrderStatusPreparing},
		transitionEdge{enums.OrderStatusPreparing, enums.OrderStatusReady},
		transitionEdge{enums.OrderStatusPreparing, enums.OrderStatusCancelled}:
		if actor.Role == enums.ActorRoleOwner && actor.OwnsRestaurant {
			return nil
		}

	case transitionEdge{enums.OrderStatusPending, enums.OrderStatusCancelled}:
		if actor.Role == enums.ActorRoleCustomer && actor.IsOrderCustomer {
			return nil
		}
		if actor.Role == enums.ActorRoleOwner && actor.OwnsRestaurant {
			return nil
		}

	case transitionEdge{enums.OrderStatusReady, enums.OrderStatusInTransit}:
		// Any agent may claim a ready order; exclusivity is enforced by the
		// conditional update, not here.
		if actor.Role == enums.ActorRoleAgent {
			return nil
		}

	case transitionEdge{enums.OrderStatusInTransit, enums.OrderStatusDelivered}:
		if actor.Role == enums.ActorRoleAgent && actor.IsAssignedAgent {
			return nil
		}

	case transitionEdge{enums.OrderStatusInTransit, enums.OrderStatusCancelled}:
		// Admin only once the order is on the road.
	}

	return pkgerrors.New(pkgerrors.CodeForbidden, "actor may not perform this transition")
}
