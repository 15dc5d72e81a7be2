package persistence

import (
	"context"

	"github.com/shipdata/loader/internal/domain/shipping"
	"gorm.io/gorm"
)

// GormShipmentRepository implements ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// Create inserts a new shipment line and fills in its generated ID
func (r *GormShipmentRepository) Create(ctx context.Context, shipment *shipping.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

// Count counts all shipment lines
func (r *GormShipmentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&shipping.Shipment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TotalQuantity sums the quantity column across all shipment lines
func (r *GormShipmentRepository) TotalQuantity(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&shipping.Shipment{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TopProducts returns up to limit products ordered by their summed
// quantity descending, lowest product ID first among equal totals
func (r *GormShipmentRepository) TopProducts(ctx context.Context, limit int) ([]shipping.ProductVolume, error) {
	var volumes []shipping.ProductVolume
	err := r.db.WithContext(ctx).
		Table("shipment").
		Select("product.id AS product_id, product.name AS product_name, SUM(shipment.quantity) AS total_quantity, COUNT(shipment.id) AS shipment_count").
		Joins("JOIN product ON product.id = shipment.product_id").
		Group("product.id, product.name").
		Order("total_quantity DESC, product.id ASC").
		Limit(limit).
		Scan(&volumes).Error
	if err != nil {
		return nil, err
	}
	return volumes, nil
}

// Sample returns up to limit shipment lines in insertion order
func (r *GormShipmentRepository) Sample(ctx context.Context, limit int) ([]shipping.ShipmentDetail, error) {
	var details []shipping.ShipmentDetail
	err := r.db.WithContext(ctx).
		Table("shipment").
		Select("shipment.id AS shipment_id, product.name AS product_name, shipment.quantity, shipment.origin, shipment.destination").
		Joins("JOIN product ON product.id = shipment.product_id").
		Order("shipment.id ASC").
		Limit(limit).
		Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

// DeleteAll removes every shipment row
func (r *GormShipmentRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&shipping.Shipment{}).Error
}

// Ensure GormShipmentRepository implements the interface
var _ shipping.ShipmentRepository = (*GormShipmentRepository)(nil)
