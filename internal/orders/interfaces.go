package orders

import (
	"context"
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/avaldezmon/shoplane-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, storeID uuid.UUID, orderNumber string) (*models.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Order, error)
	AttachStripeRefs(ctx context.Context, orderID uuid.UUID, sessionID, paymentIntentID *string) error
	UpdateStateCAS(ctx context.Context, orderID uuid.UUID, expectedVersion int, status enums.OrderStatus, paymentStatus enums.PaymentStatus) (bool, error)
	CountPendingWithoutSessionBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
