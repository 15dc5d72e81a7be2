package persistence

import (
	"context"
	"errors"

	"github.com/shipdata/loader/internal/domain/shared"
	"github.com/shipdata/loader/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByName finds a product by its exact name
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*shipping.Product, error) {
	var product shipping.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product and fills in its generated ID
func (r *GormProductRepository) Create(ctx context.Context, product *shipping.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Count counts all products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&shipping.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteAll removes every product row
func (r *GormProductRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&shipping.Product{}).Error
}

// Ensure GormProductRepository implements the interface
var _ shipping.ProductRepository = (*GormProductRepository)(nil)
