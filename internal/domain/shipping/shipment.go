package shipping

import (
	"strings"

	"github.com/shipdata/loader/internal/domain/shared"
)

// Shipment is one aggregated product line of a shipment. Origin and
// destination are nil when no route was recorded for the shipment.
type Shipment struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	ProductID   int64   `gorm:"not null;index"`
	Product     Product `gorm:"foreignKey:ProductID;references:ID"`
	Quantity    int64   `gorm:"not null"`
	Origin      *string `gorm:"type:varchar(255)"`
	Destination *string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Shipment) TableName() string {
	return "shipment"
}

// NewShipment creates a shipment line for an already persisted product.
func NewShipment(productID int64, c Candidate) *Shipment {
	return &Shipment{
		ProductID:   productID,
		Quantity:    c.Quantity,
		Origin:      c.Origin,
		Destination: c.Destination,
	}
}

// HasRoute reports whether both endpoints of the route are known.
func (s *Shipment) HasRoute() bool {
	return s.Origin != nil && s.Destination != nil
}

// Candidate is a normalized shipment line awaiting persistence. Line is
// the first source line that contributed to the record and Source names
// the file it came from, both kept for error reporting.
type Candidate struct {
	Product     string
	Quantity    int64
	Origin      *string
	Destination *string
	Line        int
	Source      string
}

// Validate checks that the candidate can be persisted.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Product) == "" {
		return shared.NewDomainError("INVALID_PRODUCT", "Candidate product cannot be empty")
	}
	if c.Quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Candidate quantity must be positive")
	}
	return nil
}
