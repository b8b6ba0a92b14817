package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a sellable item. PriceCents is the live catalog price; order
// items freeze their own copy at checkout so later price edits never touch
// existing orders.
type Product struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index:idx_products_store_id" json:"store_id"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string `gorm:"size:2048" json:"image_url,omitempty"`

	PriceCents int64 `gorm:"not null" json:"price_cents"`
	Active     bool  `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
