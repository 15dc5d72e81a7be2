// Package testutil provides common test utilities for the shipment loader.
// It contains helpers for building CSV input fixtures and mock databases.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a new mock database for testing.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	err := m.Mock.ExpectationsWereMet()
	require.NoError(t, err, "Unmet database expectations")
}

// WriteCSV writes a CSV fixture file into dir and returns its full path.
func WriteCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ShippingFixture holds the three input files of one load run.
type ShippingFixture struct {
	DirectPath   string
	ShipmentPath string
	RoutePath    string
}

// WriteShippingFixture writes the standard three-file fixture used by the
// loader tests: one direct record, one shipment split across two products
// with the apple rows folding to a quantity of 8, and the shipment's route.
func WriteShippingFixture(t *testing.T, dir string) ShippingFixture {
	t.Helper()

	return ShippingFixture{
		DirectPath: WriteCSV(t, dir, "shipping_data_0.csv",
			"product,product_quantity,origin_warehouse,destination_store",
			"cherry,4,Warehouse_C,Store_D",
		),
		ShipmentPath: WriteCSV(t, dir, "shipping_data_1.csv",
			"shipment_identifier,product,product_quantity",
			"SHIP-1,apple,5",
			"SHIP-1,apple,3",
			"SHIP-1,banana,2",
		),
		RoutePath: WriteCSV(t, dir, "shipping_data_2.csv",
			"shipment_identifier,origin_warehouse,destination_store",
			"SHIP-1,Warehouse_A,Store_B",
		),
	}
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

// ContextWithCancel creates a cancellable context for tests.
func ContextWithCancel(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithCancel(context.Background())
}
