package cart

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/avaldezmon/shoplane-backend/pkg/redis"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeTokenStore struct {
	values map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{values: map[string]string{}}
}

func (f *fakeTokenStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeTokenStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeTokenStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeTokenStore) CartKey(storeID, cartToken string) string {
	return strings.Join([]string{"sl", "cart", storeID, cartToken}, ":")
}

type stubProductReader struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProductReader) FindActiveProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, ok := s.products[productID]
	if !ok || product.StoreID != storeID {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func newCartService(t *testing.T, products ...*models.Product) (Service, uuid.UUID) {
	t.Helper()

	storeID := uuid.New()
	reader := &stubProductReader{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		p.StoreID = storeID
		reader.products[p.ID] = p
	}

	store, err := NewStore(newFakeTokenStore(), time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	svc, err := NewService(store, reader)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, storeID
}

func TestServiceAddItemPersistsAndPrices(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Canvas Tote", PriceCents: 2000, Active: true}
	svc, storeID := newCartService(t, product)
	ctx := context.Background()

	view, err := svc.AddItem(ctx, storeID, "tok-1", product.ID, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if view.TotalCents != 4000 || view.Total != "40.00" {
		t.Fatalf("unexpected total %d / %s", view.TotalCents, view.Total)
	}

	// reload through the store to prove persistence
	view, err = svc.Get(ctx, storeID, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", view.ItemCount)
	}
}

func TestServiceAddUnknownProduct(t *testing.T) {
	svc, storeID := newCartService(t)
	_, err := svc.AddItem(context.Background(), storeID, "tok-1", uuid.New(), 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceUpdateQuantityAbsentProduct(t *testing.T) {
	svc, storeID := newCartService(t)
	_, err := svc.UpdateQuantity(context.Background(), storeID, "tok-1", uuid.New(), 2)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceClearThenGetReturnsEmptyCart(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Mug", PriceCents: 900, Active: true}
	svc, storeID := newCartService(t, product)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, storeID, "tok-1", product.ID, 3); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.Clear(ctx, storeID, "tok-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	view, err := svc.Get(ctx, storeID, "tok-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.ItemCount != 0 || len(view.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestServiceCartsAreStoreScoped(t *testing.T) {
	product := &models.Product{ID: uuid.New(), Name: "Mug", PriceCents: 900, Active: true}
	svc, storeID := newCartService(t, product)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, storeID, "tok-1", product.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}

	view, err := svc.Get(ctx, uuid.New(), "tok-1")
	if err != nil {
		t.Fatalf("get foreign store: %v", err)
	}
	if view.ItemCount != 0 {
		t.Fatal("cart must not leak across stores")
	}
}
