package models

import (
	"time"

	"github.com/avaldezmon/shoplane-backend/pkg/enums"
	"github.com/avaldezmon/shoplane-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the authoritative record of a purchase. Monetary fields are
// immutable after creation; only Status, PaymentStatus, the Stripe reference
// columns and Version change afterward.
//
// Version backs the compare-and-swap used by webhook reconciliation: every
// state write asserts the version it read and bumps it by one.
type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string    `gorm:"size:40;not null;uniqueIndex:uidx_orders_order_number" json:"order_number"`
	StoreID     uuid.UUID `gorm:"type:uuid;not null;index:idx_orders_store_id" json:"store_id"`

	CustomerEmail     string `gorm:"size:320;not null" json:"customer_email"`
	CustomerFirstName string `gorm:"size:120;not null" json:"customer_first_name"`
	CustomerLastName  string `gorm:"size:120;not null" json:"customer_last_name"`
	CustomerPhone     string `gorm:"size:40" json:"customer_phone,omitempty"`

	ShippingAddress types.Address `gorm:"serializer:json;type:jsonb;not null" json:"shipping_address"`

	SubtotalCents int64 `gorm:"not null" json:"subtotal_cents"`
	TaxCents      int64 `gorm:"not null;default:0" json:"tax_cents"`
	ShippingCents int64 `gorm:"not null;default:0" json:"shipping_cents"`
	TotalCents    int64 `gorm:"not null" json:"total_cents"`

	Status        enums.OrderStatus   `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentStatus enums.PaymentStatus `gorm:"size:20;not null;default:'pending'" json:"payment_status"`

	StripeSessionID       *string `gorm:"size:255;uniqueIndex:uidx_orders_stripe_session_id" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string `gorm:"size:255;uniqueIndex:uidx_orders_stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`

	Version int `gorm:"not null;default:1" json:"version"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
