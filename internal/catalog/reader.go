package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
)

// Reader exposes menu lookups used by order creation. Calls accept an
// optional transaction so checkout can read inside its own tx.
type Reader struct {
	db *gorm.DB
}

// NewReader builds a catalog reader bound to the provided DB.
func NewReader(db *gorm.DB) (*Reader, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &Reader{db: db}, nil
}

func (r *Reader) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// FindRestaurant loads one restaurant by ID.
func (r *Reader) FindRestaurant(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := r.handle(tx).WithContext(ctx).
		Where("id = ?", restaurantID).
		First(&restaurant).Error
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// FindItems loads the requested menu items scoped to a restaurant, keyed by
// ID. Items belonging to other restaurants are silently absent from the map.
func (r *Reader) FindItems(ctx context.Context, tx *gorm.DB, restaurantID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]models.MenuItem, error) {
	result := make(map[uuid.UUID]models.MenuItem, len(itemIDs))
	if len(itemIDs) == 0 {
		return result, nil
	}

	var items []models.MenuItem
	err := r.handle(tx).WithContext(ctx).
		Where("restaurant_id = ? AND id IN ?", restaurantID, itemIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		result[item.ID] = item
	}
	return result, nil
}
