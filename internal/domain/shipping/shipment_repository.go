package shipping

import (
	"context"
)

// ShipmentDetail is a shipment row joined with its product name, used by
// the run summary.
type ShipmentDetail struct {
	ShipmentID  int64
	ProductName string
	Quantity    int64
	Origin      *string
	Destination *string
}

// ProductVolume aggregates the shipment lines of one product.
type ProductVolume struct {
	ProductID     int64
	ProductName   string
	TotalQuantity int64
	ShipmentCount int64
}

// ShipmentRepository defines the interface for shipment persistence
type ShipmentRepository interface {
	// Create inserts a new shipment line and fills in its generated ID
	Create(ctx context.Context, shipment *Shipment) error

	// Count counts all shipment lines
	Count(ctx context.Context) (int64, error)

	// TotalQuantity sums the quantity column across all shipment lines.
	// Returns zero when the table is empty.
	TotalQuantity(ctx context.Context) (int64, error)

	// TopProducts returns up to limit products ordered by their summed
	// quantity descending, lowest product ID first among equal totals
	TopProducts(ctx context.Context, limit int) ([]ProductVolume, error)

	// Sample returns up to limit shipment lines in insertion order
	Sample(ctx context.Context, limit int) ([]ShipmentDetail, error)

	// DeleteAll removes every shipment row
	DeleteAll(ctx context.Context) error
}
