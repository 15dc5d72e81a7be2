package report

import (
	"context"

	"github.com/shipdata/loader/internal/domain/shipping"
	"go.uber.org/zap"
)

// SummaryService provides application-level summary operations over the
// loaded tables
type SummaryService struct {
	productRepo  shipping.ProductRepository
	shipmentRepo shipping.ShipmentRepository
	logger       *zap.Logger
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(
	productRepo shipping.ProductRepository,
	shipmentRepo shipping.ShipmentRepository,
	logger *zap.Logger,
) *SummaryService {
	return &SummaryService{
		productRepo:  productRepo,
		shipmentRepo: shipmentRepo,
		logger:       logger,
	}
}

// SummaryResponse represents the aggregate state of the loaded tables
type SummaryResponse struct {
	ProductCount  int64                   `json:"product_count"`
	ShipmentCount int64                   `json:"shipment_count"`
	TotalQuantity int64                   `json:"total_quantity"`
	TopProducts   []ProductVolumeResponse `json:"top_products"`
	SampleRows    []ShipmentRowResponse   `json:"sample_rows"`
}

// ProductVolumeResponse represents one product's shipment volume ranking
type ProductVolumeResponse struct {
	Rank          int    `json:"rank"`
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	TotalQuantity int64  `json:"total_quantity"`
	ShipmentCount int64  `json:"shipment_count"`
}

// ShipmentRowResponse represents one loaded shipment row
type ShipmentRowResponse struct {
	ShipmentID  int64   `json:"shipment_id"`
	Product     string  `json:"product"`
	Quantity    int64   `json:"quantity"`
	Origin      *string `json:"origin"`
	Destination *string `json:"destination"`
}

// SummaryFilter bounds the detail sections of the summary
type SummaryFilter struct {
	TopN       int
	SampleSize int
}

// GetLoadSummary returns counts, total quantity, the top products by summed
// quantity, and the first rows of the shipment table
func (s *SummaryService) GetLoadSummary(ctx context.Context, filter SummaryFilter) (*SummaryResponse, error) {
	topN := filter.TopN
	if topN <= 0 {
		topN = 10
	}
	sampleSize := filter.SampleSize
	if sampleSize <= 0 {
		sampleSize = 10
	}

	productCount, err := s.productRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	shipmentCount, err := s.shipmentRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalQuantity, err := s.shipmentRepo.TotalQuantity(ctx)
	if err != nil {
		return nil, err
	}

	volumes, err := s.shipmentRepo.TopProducts(ctx, topN)
	if err != nil {
		return nil, err
	}

	sample, err := s.shipmentRepo.Sample(ctx, sampleSize)
	if err != nil {
		return nil, err
	}

	response := &SummaryResponse{
		ProductCount:  productCount,
		ShipmentCount: shipmentCount,
		TotalQuantity: totalQuantity,
	}

	response.TopProducts = make([]ProductVolumeResponse, len(volumes))
	for i, v := range volumes {
		response.TopProducts[i] = ProductVolumeResponse{
			Rank:          i + 1,
			ProductID:     v.ProductID,
			ProductName:   v.ProductName,
			TotalQuantity: v.TotalQuantity,
			ShipmentCount: v.ShipmentCount,
		}
	}

	response.SampleRows = make([]ShipmentRowResponse, len(sample))
	for i, row := range sample {
		response.SampleRows[i] = ShipmentRowResponse{
			ShipmentID:  row.ShipmentID,
			Product:     row.ProductName,
			Quantity:    row.Quantity,
			Origin:      row.Origin,
			Destination: row.Destination,
		}
	}

	return response, nil
}

// LogSummary writes the summary through the structured logger, one line for
// the totals and one line per detail row
func (s *SummaryService) LogSummary(summary *SummaryResponse) {
	s.logger.Info("load summary",
		zap.Int64("product_count", summary.ProductCount),
		zap.Int64("shipment_count", summary.ShipmentCount),
		zap.Int64("total_quantity", summary.TotalQuantity),
	)

	for _, p := range summary.TopProducts {
		s.logger.Info("top product",
			zap.Int("rank", p.Rank),
			zap.String("product", p.ProductName),
			zap.Int64("total_quantity", p.TotalQuantity),
			zap.Int64("shipments", p.ShipmentCount),
		)
	}

	for _, row := range summary.SampleRows {
		s.logger.Info("shipment sample",
			zap.Int64("shipment_id", row.ShipmentID),
			zap.String("product", row.Product),
			zap.Int64("quantity", row.Quantity),
			zap.Stringp("origin", row.Origin),
			zap.Stringp("destination", row.Destination),
		)
	}
}
