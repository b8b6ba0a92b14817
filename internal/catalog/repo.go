package catalog

import (
	"context"

	"github.com/avaldezmon/shoplane-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines catalog read operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	FindActiveProducts(ctx context.Context, storeID uuid.UUID, productIDs []uuid.UUID) ([]models.Product, error)
	ListActiveProducts(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveProduct(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND id = ? AND active = ?", storeID, productID, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindActiveProducts(ctx context.Context, storeID uuid.UUID, productIDs []uuid.UUID) ([]models.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND id IN ? AND active = ?", storeID, productIDs, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) ListActiveProducts(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND active = ?", storeID, true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
