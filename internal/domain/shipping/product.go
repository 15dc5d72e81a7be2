package shipping

import (
	"strings"

	"github.com/shipdata/loader/internal/domain/shared"
)

// Product is a distinct product name observed in the shipping files.
// Every source row referencing the same name resolves to one product row.
type Product struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex:uniq_product_name"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "product"
}

// NewProduct creates a product from a raw source value. Surrounding
// whitespace is stripped before validation so that " apple" and "apple"
// resolve to the same product.
func NewProduct(name string) (*Product, error) {
	trimmed := strings.TrimSpace(name)
	if err := validateProductName(trimmed); err != nil {
		return nil, err
	}

	return &Product{Name: trimmed}, nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	return nil
}
