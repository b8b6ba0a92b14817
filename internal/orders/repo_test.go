package orders

import (
	"context"
	"testing"
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/avaldezmon/shoplane-backend/pkg/enums"
	"github.com/avaldezmon/shoplane-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	stores := `
CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'usd',
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  store_id TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  customer_first_name TEXT NOT NULL,
  customer_last_name TEXT NOT NULL,
  customer_phone TEXT,
  shipping_address TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  stripe_session_id TEXT UNIQUE,
  stripe_payment_intent_id TEXT UNIQUE,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(stores).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

func newTestOrder(t *testing.T, db *gorm.DB, storeID uuid.UUID, number string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       number,
		StoreID:           storeID,
		CustomerEmail:     "buyer@example.com",
		CustomerFirstName: "Ada",
		CustomerLastName:  "Lovelace",
		ShippingAddress: types.Address{
			Line1:      "1 Infinite Loop",
			City:       "Cupertino",
			State:      "CA",
			PostalCode: "95014",
			Country:    "US",
		},
		SubtotalCents: 4000,
		TotalCents:    4000,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		Version:       1,
		Items: []models.OrderItem{
			{
				ID:             uuid.New(),
				ProductID:      uuid.New(),
				ProductName:    "Canvas Tote",
				UnitPriceCents: 2000,
				Quantity:       2,
				TotalCents:     4000,
			},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAndFindByOrderNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	created := newTestOrder(t, db, storeID, "ORD-1700000000000-AAAAAAAAA")

	found, err := repo.FindByOrderNumber(ctx, storeID, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Len(t, found.Items, 1)
	assert.Equal(t, int64(2000), found.Items[0].UnitPriceCents)

	_, err = repo.FindByOrderNumber(ctx, uuid.New(), created.OrderNumber)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFindByStripeRefs(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, db, uuid.New(), "ORD-1700000000001-BBBBBBBBB")

	sessionID := "cs_test_123"
	intentID := "pi_test_456"
	require.NoError(t, repo.AttachStripeRefs(ctx, order.ID, &sessionID, &intentID))

	bySession, err := repo.FindBySessionID(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, bySession.ID)

	byIntent, err := repo.FindByPaymentIntentID(ctx, intentID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byIntent.ID)

	_, err = repo.FindBySessionID(ctx, "cs_test_unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateStateCAS(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := newTestOrder(t, db, uuid.New(), "ORD-1700000000002-CCCCCCCCC")

	ok, err := repo.UpdateStateCAS(ctx, order.ID, 1, enums.OrderStatusProcessing, enums.PaymentStatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Status)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.Equal(t, 2, reloaded.Version)

	// stale version loses the race
	ok, err = repo.UpdateStateCAS(ctx, order.ID, 1, enums.OrderStatusCancelled, enums.PaymentStatusFailed)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
}

func TestRepositoryCountPendingWithoutSession(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	stale := newTestOrder(t, db, storeID, "ORD-1700000000003-DDDDDDDDD")
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	fresh := newTestOrder(t, db, storeID, "ORD-1700000000004-EEEEEEEEE")
	_ = fresh

	withSession := newTestOrder(t, db, storeID, "ORD-1700000000005-FFFFFFFFF")
	sessionID := "cs_test_789"
	require.NoError(t, repo.AttachStripeRefs(ctx, withSession.ID, &sessionID, nil))
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", withSession.ID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	count, err := repo.CountPendingWithoutSessionBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
