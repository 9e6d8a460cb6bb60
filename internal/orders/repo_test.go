package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jrivera-dev/platefleet-backend/pkg/db/models"
	"github.com/jrivera-dev/platefleet-backend/pkg/enums"
	"github.com/jrivera-dev/platefleet-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  checkout_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  restaurant_id TEXT NOT NULL,
  agent_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal_cents INTEGER NOT NULL,
  delivery_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  delivery_address TEXT NOT NULL,
  contact_phone TEXT NOT NULL,
  notes TEXT,
  accepted_at DATETIME,
  ready_at DATETIME,
  claimed_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM order_items")
		db.Exec("DELETE FROM orders")
	})
	return db
}

func insertOrder(t *testing.T, db *gorm.DB, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		CheckoutID:      uuid.New(),
		CustomerID:      uuid.New(),
		RestaurantID:    uuid.New(),
		Status:          status,
		SubtotalCents:   1000,
		TotalCents:      1000,
		DeliveryAddress: "1 Main St",
		ContactPhone:    "+15550100",
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestClaimWhereReadySingleWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusReady, time.Now().UTC())
	firstAgent := uuid.New()
	secondAgent := uuid.New()
	now := time.Now().UTC()

	won, err := repo.ClaimWhereReady(ctx, order.ID, firstAgent, now)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.ClaimWhereReady(ctx, order.ID, secondAgent, now)
	require.NoError(t, err)
	assert.False(t, won)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInTransit, stored.Status)
	require.NotNil(t, stored.AgentID)
	assert.Equal(t, firstAgent, *stored.AgentID)
}

func TestClaimWhereReadyConcurrentSingleWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusReady, time.Now().UTC())
	agents := []uuid.UUID{uuid.New(), uuid.New()}
	now := time.Now().UTC()

	results := make(chan bool, len(agents))
	errs := make(chan error, len(agents))

	var wg sync.WaitGroup
	for _, agentID := range agents {
		wg.Add(1)
		go func(agentID uuid.UUID) {
			defer wg.Done()
			won, claimErr := repo.ClaimWhereReady(ctx, order.ID, agentID, now)
			results <- won
			errs <- claimErr
		}(agentID)
	}
	wg.Wait()
	close(results)
	close(errs)

	for claimErr := range errs {
		require.NoError(t, claimErr)
	}

	wins := 0
	for won := range results {
		if won {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one agent must win the claim")

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInTransit, stored.Status)
	require.NotNil(t, stored.AgentID)
	assert.Contains(t, agents, *stored.AgentID)
}

func TestClaimWhereReadyRejectsNonReadyStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusPending, time.Now().UTC())

	won, err := repo.ClaimWhereReady(ctx, order.ID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, won)
}

func TestUpdateStatusWhereConditional(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusPending, time.Now().UTC())
	now := time.Now().UTC()

	ok, err := repo.UpdateStatusWhere(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPreparing, map[string]any{"accepted_at": now})
	require.NoError(t, err)
	assert.True(t, ok)

	// Source status no longer matches, so the second update is a no-op.
	ok, err = repo.UpdateStatusWhere(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, stored.Status)
	assert.NotNil(t, stored.AcceptedAt)
}

func TestListClaimableOldestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	oldest := insertOrder(t, db, enums.OrderStatusReady, base)
	middle := insertOrder(t, db, enums.OrderStatusReady, base.Add(10*time.Minute))
	newest := insertOrder(t, db, enums.OrderStatusReady, base.Add(20*time.Minute))
	insertOrder(t, db, enums.OrderStatusPending, base)

	claimed := insertOrder(t, db, enums.OrderStatusReady, base.Add(5*time.Minute))
	agentID := uuid.New()
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", claimed.ID).Updates(map[string]any{
		"status":   enums.OrderStatusInTransit,
		"agent_id": agentID,
	}).Error)

	orders, next, err := repo.ListClaimable(ctx, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Nil(t, next)
	assert.Equal(t, oldest.ID, orders[0].ID)
	assert.Equal(t, middle.ID, orders[1].ID)
	assert.Equal(t, newest.ID, orders[2].ID)
}

func TestListClaimablePaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		insertOrder(t, db, enums.OrderStatusReady, base.Add(time.Duration(i)*time.Minute))
	}

	first, next, err := repo.ListClaimable(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, next)

	second, last, err := repo.ListClaimable(ctx, pagination.Params{
		Limit:  2,
		Cursor: pagination.EncodeCursor(*next),
	})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, last)
	assert.True(t, second[0].CreatedAt.After(first[1].CreatedAt))
}

func TestListByCustomerFiltersAndOrders(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	older := insertOrder(t, db, enums.OrderStatusDelivered, base)
	newer := insertOrder(t, db, enums.OrderStatusPending, base.Add(30*time.Minute))
	for _, order := range []*models.Order{older, newer} {
		require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("customer_id", customerID).Error)
	}
	insertOrder(t, db, enums.OrderStatusPending, base)

	orders, next, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 10}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Nil(t, next)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)

	delivered := enums.OrderStatusDelivered
	orders, _, err = repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 10}, OrderFilters{Status: &delivered})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, older.ID, orders[0].ID)
}

func TestFindPendingBefore(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-30 * time.Minute)
	stale := insertOrder(t, db, enums.OrderStatusPending, cutoff.Add(-time.Hour))
	insertOrder(t, db, enums.OrderStatusPending, time.Now().UTC())
	insertOrder(t, db, enums.OrderStatusPreparing, cutoff.Add(-time.Hour))

	orders, err := repo.FindPendingBefore(ctx, cutoff, 100)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stale.ID, orders[0].ID)
}

func TestFindByCheckoutIDLoadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := insertOrder(t, db, enums.OrderStatusPending, time.Now().UTC())
	items := []models.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, Name: "Fries", UnitPriceCents: 450, Qty: 1, TotalCents: 450, Position: 1},
		{ID: uuid.New(), OrderID: order.ID, Name: "Burger", UnitPriceCents: 1200, Qty: 2, TotalCents: 2400, Position: 0},
	}
	require.NoError(t, repo.CreateItems(ctx, items))

	orders, err := repo.FindByCheckoutID(ctx, order.CheckoutID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, "Burger", orders[0].Items[0].Name)
	assert.Equal(t, "Fries", orders[0].Items[1].Name)
}
