package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is a line on an order. UnitPriceCents is the catalog price frozen
// at checkout time; TotalCents is UnitPriceCents * Quantity, also frozen.
type OrderItem struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index:idx_order_items_order_id" json:"order_id"`

	ProductID   uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string    `gorm:"size:255;not null" json:"product_name"`

	UnitPriceCents int64 `gorm:"not null" json:"unit_price_cents"`
	Quantity       int   `gorm:"not null" json:"quantity"`
	TotalCents     int64 `gorm:"not null" json:"total_cents"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
