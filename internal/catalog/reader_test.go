package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	restaurants := `
CREATE TABLE IF NOT EXISTS restaurants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  phone TEXT,
  email TEXT,
  address TEXT NOT NULL,
  cuisines TEXT,
  delivery_fee_cents INTEGER NOT NULL DEFAULT 0,
  accepting_orders INTEGER NOT NULL DEFAULT 1,
  owner_user_id TEXT NOT NULL,
  last_active_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	menuItems := `
CREATE TABLE IF NOT EXISTS menu_items (
  id TEXT PRIMARY KEY,
  restaurant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(restaurants).Error)
	require.NoError(t, db.Exec(menuItems).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM menu_items")
		db.Exec("DELETE FROM restaurants")
	})
	return db
}

func TestFindItemsScopesToRestaurant(t *testing.T) {
	db := setupCatalogTestDB(t)
	reader, err := NewReader(db)
	require.NoError(t, err)
	ctx := context.Background()

	restaurantID := uuid.New()
	otherRestaurantID := uuid.New()

	mine := models.MenuItem{ID: uuid.New(), RestaurantID: restaurantID, Name: "Ramen", PriceCents: 1500, Available: true}
	foreign := models.MenuItem{ID: uuid.New(), RestaurantID: otherRestaurantID, Name: "Pizza", PriceCents: 1800, Available: true}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&foreign).Error)

	items, err := reader.FindItems(ctx, nil, restaurantID, []uuid.UUID{mine.ID, foreign.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)

	got, ok := items[mine.ID]
	require.True(t, ok)
	assert.Equal(t, "Ramen", got.Name)

	_, ok = items[foreign.ID]
	assert.False(t, ok)
}

func TestFindItemsEmptyInput(t *testing.T) {
	db := setupCatalogTestDB(t)
	reader, err := NewReader(db)
	require.NoError(t, err)

	items, err := reader.FindItems(context.Background(), nil, uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFindRestaurant(t *testing.T) {
	db := setupCatalogTestDB(t)
	reader, err := NewReader(db)
	require.NoError(t, err)
	ctx := context.Background()

	restaurant := models.Restaurant{
		ID:               uuid.New(),
		Name:             "Noodle House",
		Address:          "2 Side St",
		DeliveryFeeCents: 250,
		AcceptingOrders:  true,
		OwnerUserID:      uuid.New(),
	}
	require.NoError(t, db.Create(&restaurant).Error)

	got, err := reader.FindRestaurant(ctx, nil, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Noodle House", got.Name)
	assert.Equal(t, 250, got.DeliveryFeeCents)

	_, err = reader.FindRestaurant(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
