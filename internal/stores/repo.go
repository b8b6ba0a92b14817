package stores

import (
	"context"
	"strings"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines store tenant lookups.
type Repository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stores repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("slug = ? AND active = ?", strings.ToLower(strings.TrimSpace(slug)), true).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}
