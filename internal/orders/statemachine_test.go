package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	pkgerrors "github.com/jrivera-dev/platefleet-backend/pkg/errors"
)

func TestEdgeAllowedGrid(t *testing.T) {
	legal := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusPending, enums.OrderStatusPreparing}:   true,
		{enums.OrderStatusPending, enums.OrderStatusCancelled}:   true,
		{enums.OrderStatusPreparing, enums.OrderStatusReady}:     true,
		{enums.OrderStatusPreparing, enums.OrderStatusCancelled}: true,
		{enums.OrderStatusReady, enums.OrderStatusInTransit}:     true,
		{enums.OrderStatusInTransit, enums.OrderStatusDelivered}: true,
		{enums.OrderStatusInTransit, enums.OrderStatusCancelled}: true,
	}

	for _, from := range enums.AllOrderStatuses() {
		for _, to := range enums.AllOrderStatuses() {
			expected := legal[[2]enums.OrderStatus{from, to}]
			assert.Equal(t, expected, EdgeAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestAuthorizeTerminalStates(t *testing.T) {
	admin := ActorContext{Role: enums.ActorRoleAdmin}

	for _, from := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		for _, to := range enums.AllOrderStatuses() {
			err := Authorize(from, to, admin)
			require.Error(t, err, "%s -> %s", from, to)
			assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.As(err).Code())
		}
	}
}

func TestAuthorizeIllegalEdge(t *testing.T) {
	err := Authorize(enums.OrderStatusPending, enums.OrderStatusReady, ActorContext{Role: enums.ActorRoleAdmin})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.As(err).Code())

	err = Authorize(enums.OrderStatusReady, enums.OrderStatusDelivered, ActorContext{Role: enums.ActorRoleAdmin})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.As(err).Code())
}

func TestAuthorizeAdminAllowedOnLegalEdgesExceptClaim(t *testing.T) {
	admin := ActorContext{Role: enums.ActorRoleAdmin}

	edges := [][2]enums.OrderStatus{
		{enums.OrderStatusPending, enums.OrderStatusPreparing},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusPreparing, enums.OrderStatusReady},
		{enums.OrderStatusPreparing, enums.OrderStatusCancelled},
		{enums.OrderStatusInTransit, enums.OrderStatusDelivered},
		{enums.OrderStatusInTransit, enums.OrderStatusCancelled},
	}
	for _, edge := range edges {
		assert.NoError(t, Authorize(edge[0], edge[1], admin), "%s -> %s", edge[0], edge[1])
	}
}

func TestAuthorizeAdminCannotClaim(t *testing.T) {
	admin := ActorContext{Role: enums.ActorRoleAdmin}

	err := Authorize(enums.OrderStatusReady, enums.OrderStatusInTransit, admin)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestAuthorizeOwnerEdges(t *testing.T) {
	owner := ActorContext{Role: enums.ActorRoleOwner, OwnsRestaurant: true}
	stranger := ActorContext{Role: enums.ActorRoleOwner, OwnsRestaurant: false}

	assert.NoError(t, Authorize(enums.OrderStatusPending, enums.OrderStatusPreparing, owner))
	assert.NoError(t, Authorize(enums.OrderStatusPending, enums.OrderStatusCancelled, owner))
	assert.NoError(t, Authorize(enums.OrderStatusPreparing, enums.OrderStatusReady, owner))
	assert.NoError(t, Authorize(enums.OrderStatusPreparing, enums.OrderStatusCancelled, owner))

	err := Authorize(enums.OrderStatusPending, enums.OrderStatusPreparing, stranger)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = Authorize(enums.OrderStatusInTransit, enums.OrderStatusCancelled, owner)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestAuthorizeCustomerEdges(t *testing.T) {
	customer := ActorContext{Role: enums.ActorRoleCustomer, IsOrderCustomer: true}
	other := ActorContext{Role: enums.ActorRoleCustomer, IsOrderCustomer: false}

	assert.NoError(t, Authorize(enums.OrderStatusPending, enums.OrderStatusCancelled, customer))

	err := Authorize(enums.OrderStatusPending, enums.OrderStatusCancelled, other)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	// Once the restaurant accepts, the customer can no longer cancel.
	err = Authorize(enums.OrderStatusPreparing, enums.OrderStatusCancelled, customer)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestAuthorizeAgentEdges(t *testing.T) {
	anyAgent := ActorContext{Role: enums.ActorRoleAgent}
	assigned := ActorContext{Role: enums.ActorRoleAgent, IsAssignedAgent: true}

	assert.NoError(t, Authorize(enums.OrderStatusReady, enums.OrderStatusInTransit, anyAgent))

	assert.NoError(t, Authorize(enums.OrderStatusInTransit, enums.OrderStatusDelivered, assigned))

	err := Authorize(enums.OrderStatusInTransit, enums.OrderStatusDelivered, anyAgent)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	err = Authorize(enums.OrderStatusInTransit, enums.OrderStatusCancelled, assigned)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}
