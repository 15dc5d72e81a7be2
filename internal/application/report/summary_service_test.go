package report

import (
	"context"
	"testing"

	"github.com/shipdata/loader/internal/domain/shipping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByName(ctx context.Context, name string) (*shipping.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *shipping.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Create(ctx context.Context, shipment *shipping.Shipment) error {
	args := m.Called(ctx, shipment)
	return args.Error(0)
}

func (m *MockShipmentRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShipmentRepository) TotalQuantity(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShipmentRepository) TopProducts(ctx context.Context, limit int) ([]shipping.ProductVolume, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.ProductVolume), args.Error(1)
}

func (m *MockShipmentRepository) Sample(ctx context.Context, limit int) ([]shipping.ShipmentDetail, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.ShipmentDetail), args.Error(1)
}

func (m *MockShipmentRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func strPtr(s string) *string {
	return &s
}

func TestSummaryService_GetLoadSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("assembles counts, ranking, and sample", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		shipmentRepo := new(MockShipmentRepository)
		svc := NewSummaryService(productRepo, shipmentRepo, zap.NewNop())

		productRepo.On("Count", ctx).Return(int64(2), nil)
		shipmentRepo.On("Count", ctx).Return(int64(3), nil)
		shipmentRepo.On("TotalQuantity", ctx).Return(int64(14), nil)
		shipmentRepo.On("TopProducts", ctx, 10).Return([]shipping.ProductVolume{
			{ProductID: 1, ProductName: "apple", TotalQuantity: 8, ShipmentCount: 1},
			{ProductID: 3, ProductName: "cherry", TotalQuantity: 4, ShipmentCount: 1},
		}, nil)
		shipmentRepo.On("Sample", ctx, 10).Return([]shipping.ShipmentDetail{
			{ShipmentID: 1, ProductName: "cherry", Quantity: 4, Origin: strPtr("Warehouse_C"), Destination: strPtr("Store_D")},
			{ShipmentID: 2, ProductName: "apple", Quantity: 8},
		}, nil)

		summary, err := svc.GetLoadSummary(ctx, SummaryFilter{})

		require.NoError(t, err)
		assert.Equal(t, int64(2), summary.ProductCount)
		assert.Equal(t, int64(3), summary.ShipmentCount)
		assert.Equal(t, int64(14), summary.TotalQuantity)

		require.Len(t, summary.TopProducts, 2)
		assert.Equal(t, 1, summary.TopProducts[0].Rank)
		assert.Equal(t, "apple", summary.TopProducts[0].ProductName)
		assert.Equal(t, int64(8), summary.TopProducts[0].TotalQuantity)
		assert.Equal(t, 2, summary.TopProducts[1].Rank)
		assert.Equal(t, "cherry", summary.TopProducts[1].ProductName)

		require.Len(t, summary.SampleRows, 2)
		assert.Equal(t, int64(1), summary.SampleRows[0].ShipmentID)
		assert.Equal(t, "cherry", summary.SampleRows[0].Product)
		require.NotNil(t, summary.SampleRows[0].Origin)
		assert.Equal(t, "Warehouse_C", *summary.SampleRows[0].Origin)
		assert.Nil(t, summary.SampleRows[1].Origin)

		productRepo.AssertExpectations(t)
		shipmentRepo.AssertExpectations(t)
	})

	t.Run("passes configured limits through", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		shipmentRepo := new(MockShipmentRepository)
		svc := NewSummaryService(productRepo, shipmentRepo, zap.NewNop())

		productRepo.On("Count", ctx).Return(int64(0), nil)
		shipmentRepo.On("Count", ctx).Return(int64(0), nil)
		shipmentRepo.On("TotalQuantity", ctx).Return(int64(0), nil)
		shipmentRepo.On("TopProducts", ctx, 3).Return([]shipping.ProductVolume{}, nil)
		shipmentRepo.On("Sample", ctx, 5).Return([]shipping.ShipmentDetail{}, nil)

		summary, err := svc.GetLoadSummary(ctx, SummaryFilter{TopN: 3, SampleSize: 5})

		require.NoError(t, err)
		assert.Empty(t, summary.TopProducts)
		assert.Empty(t, summary.SampleRows)
		shipmentRepo.AssertExpectations(t)
	})

	t.Run("propagates count failures", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		shipmentRepo := new(MockShipmentRepository)
		svc := NewSummaryService(productRepo, shipmentRepo, zap.NewNop())

		productRepo.On("Count", ctx).Return(int64(0), assert.AnError)

		summary, err := svc.GetLoadSummary(ctx, SummaryFilter{})

		assert.Nil(t, summary)
		assert.Equal(t, assert.AnError, err)
		shipmentRepo.AssertNotCalled(t, "Count", mock.Anything)
	})

	t.Run("propagates ranking failures", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		shipmentRepo := new(MockShipmentRepository)
		svc := NewSummaryService(productRepo, shipmentRepo, zap.NewNop())

		productRepo.On("Count", ctx).Return(int64(2), nil)
		shipmentRepo.On("Count", ctx).Return(int64(3), nil)
		shipmentRepo.On("TotalQuantity", ctx).Return(int64(14), nil)
		shipmentRepo.On("TopProducts", ctx, 10).Return(nil, assert.AnError)

		summary, err := svc.GetLoadSummary(ctx, SummaryFilter{})

		assert.Nil(t, summary)
		assert.Equal(t, assert.AnError, err)
		shipmentRepo.AssertNotCalled(t, "Sample", mock.Anything, mock.Anything)
	})
}

func TestSummaryService_LogSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewSummaryService(new(MockProductRepository), new(MockShipmentRepository), zap.New(core))

	svc.LogSummary(&SummaryResponse{
		ProductCount:  2,
		ShipmentCount: 3,
		TotalQuantity: 14,
		TopProducts: []ProductVolumeResponse{
			{Rank: 1, ProductID: 1, ProductName: "apple", TotalQuantity: 8, ShipmentCount: 1},
		},
		SampleRows: []ShipmentRowResponse{
			{ShipmentID: 1, Product: "cherry", Quantity: 4, Origin: strPtr("Warehouse_C")},
			{ShipmentID: 2, Product: "apple", Quantity: 8},
		},
	})

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "load summary", entries[0].Message)
	assert.Equal(t, int64(3), entries[0].ContextMap()["shipment_count"])

	assert.Equal(t, "top product", entries[1].Message)
	assert.Equal(t, "apple", entries[1].ContextMap()["product"])

	assert.Equal(t, "shipment sample", entries[2].Message)
	assert.Equal(t, "Warehouse_C", entries[2].ContextMap()["origin"])
	assert.Equal(t, "shipment sample", entries[3].Message)
}
