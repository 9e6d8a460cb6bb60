package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	"github.com/jrivera-dev/platefleet-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByIDWithItems(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByCheckoutID(ctx context.Context, checkoutID uuid.UUID) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, *pagination.Cursor, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, *pagination.Cursor, error)
	ListClaimable(ctx context.Context, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, params pagination.Params, filters OrderFilters) ([]models.Order, *pagination.Cursor, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	UpdateStatusWhere(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	ClaimWhereReady(ctx context.Context, orderID, agentID uuid.UUID, now time.Time) (bool, error)
}
