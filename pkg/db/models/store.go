package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is a storefront tenant. Every order and product row is scoped to a
// store; nothing crosses the boundary.
type Store struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug string    `gorm:"size:120;not null;uniqueIndex:uidx_stores_slug" json:"slug"`
	Name string    `gorm:"size:255;not null" json:"name"`

	Currency string `gorm:"size:3;not null;default:'usd'" json:"currency"`
	Active   bool   `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Store) TableName() string { return "stores" }

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
