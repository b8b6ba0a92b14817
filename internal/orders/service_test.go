package orders

import (
	"context"
	"testing"
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/avaldezmon/shoplane-backend/pkg/enums"
	pkgerrors "github.com/avaldezmon/shoplane-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubOrdersRepo struct {
	Repository
	byNumber  map[string]*models.Order
	bySession map[string]*models.Order
}

func (s *stubOrdersRepo) FindByOrderNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) (*models.Order, error) {
	order, ok := s.byNumber[orderNumber]
	if !ok || order.StoreID != storeID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrdersRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	order, ok := s.bySession[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func sampleOrder(storeID uuid.UUID) *models.Order {
	sessionID := "cs_test_abc"
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-1700000000000-ZZZZZZZZZ",
		StoreID:       storeID,
		SubtotalCents: 4000,
		TotalCents:    4000,
		Status:        enums.OrderStatusProcessing,
		PaymentStatus: enums.PaymentStatusPaid,
		Items: []models.OrderItem{
			{ProductName: "Canvas Tote", UnitPriceCents: 2000, Quantity: 2, TotalCents: 4000},
		},
		StripeSessionID: &sessionID,
		CreatedAt:       time.Now(),
	}
}

func TestGetByOrderNumberFormatsMoney(t *testing.T) {
	storeID := uuid.New()
	order := sampleOrder(storeID)
	svc, err := NewService(&stubOrdersRepo{byNumber: map[string]*models.Order{order.OrderNumber: order}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	view, err := svc.GetByOrderNumber(context.Background(), storeID, order.OrderNumber)
	if err != nil {
		t.Fatalf("get by order number: %v", err)
	}
	if view.Total != "40.00" {
		t.Fatalf("expected total 40.00, got %s", view.Total)
	}
	if len(view.Items) != 1 || view.Items[0].UnitPrice != "20.00" {
		t.Fatalf("unexpected items: %+v", view.Items)
	}
}

func TestGetByOrderNumberWrongStore(t *testing.T) {
	order := sampleOrder(uuid.New())
	svc, err := NewService(&stubOrdersRepo{byNumber: map[string]*models.Order{order.OrderNumber: order}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetByOrderNumber(context.Background(), uuid.New(), order.OrderNumber)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetBySessionIDScopedToStore(t *testing.T) {
	storeID := uuid.New()
	order := sampleOrder(storeID)
	svc, err := NewService(&stubOrdersRepo{bySession: map[string]*models.Order{*order.StripeSessionID: order}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	view, err := svc.GetBySessionID(context.Background(), storeID, *order.StripeSessionID)
	if err != nil {
		t.Fatalf("get by session: %v", err)
	}
	if view.OrderNumber != order.OrderNumber {
		t.Fatalf("unexpected order %s", view.OrderNumber)
	}

	_, err = svc.GetBySessionID(context.Background(), uuid.New(), *order.StripeSessionID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign store, got %v", err)
	}
}
