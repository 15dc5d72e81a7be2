package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shipdata/loader/internal/domain/shared"
	"github.com/shipdata/loader/internal/domain/shipping"
	csvimport "github.com/shipdata/loader/internal/infrastructure/import"
	"github.com/shipdata/loader/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// StoreResetter clears previously loaded rows ahead of a replace run.
type StoreResetter interface {
	Reset(ctx context.Context) error
}

// Service loads the three source files into the database.
type Service struct {
	productRepo  shipping.ProductRepository
	shipmentRepo shipping.ShipmentRepository
	resetter     StoreResetter
	logger       *zap.Logger
}

// NewService creates a new ingest Service
func NewService(
	productRepo shipping.ProductRepository,
	shipmentRepo shipping.ShipmentRepository,
	resetter StoreResetter,
	log *zap.Logger,
) *Service {
	return &Service{
		productRepo:  productRepo,
		shipmentRepo: shipmentRepo,
		resetter:     resetter,
		logger:       log,
	}
}

// Run executes one load run and reports its outcome. File-level failures
// abort the run with an error; row-level failures are logged, counted and
// skipped so one bad row never stops the load.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	if !opts.Mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_MODE", fmt.Sprintf("unknown run mode %q", opts.Mode))
	}
	// All inputs must exist before a replace run clears anything.
	if err := checkInputs(opts.DirectPath, opts.ShipmentPath, opts.RoutePath); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx, log := logger.WithRunID(ctx, s.logger, runID)

	start := time.Now()
	log.Info("starting load run",
		zap.String("mode", string(opts.Mode)),
		zap.String("direct_file", opts.DirectPath),
		zap.String("shipment_file", opts.ShipmentPath),
		zap.String("route_file", opts.RoutePath),
	)

	if opts.Mode == RunModeReplace {
		if err := s.resetter.Reset(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear tables: %w", err)
		}
		log.Info("cleared previously loaded rows")
	}

	result := &Result{RunID: runID, Mode: opts.Mode}
	ec := csvimport.NewErrorCollection(opts.MaxRowErrors)
	cache := newProductCache()

	if err := s.loadDirect(ctx, opts.DirectPath, cache, ec, result, log); err != nil {
		return nil, err
	}
	if err := s.loadJoined(ctx, opts.ShipmentPath, opts.RoutePath, cache, ec, result, log); err != nil {
		return nil, err
	}

	result.Errors = ec.Errors()
	result.IsTruncated = ec.IsTruncated()
	result.TotalErrors = ec.TotalCount()
	result.Duration = time.Since(start)

	log.Info("load run finished",
		zap.Int("products_created", result.ProductsCreated),
		zap.Int("shipments_loaded", result.ShipmentsLoaded),
		zap.Int("rows_skipped", result.RowsSkipped),
		zap.Int("row_errors", result.TotalErrors),
		zap.Bool("errors_truncated", result.IsTruncated),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

// loadDirect loads the self-contained file, one record per row.
func (s *Service) loadDirect(ctx context.Context, path string, cache *productCache, ec *csvimport.ErrorCollection, result *Result, log *zap.Logger) error {
	rows, err := readSource(path, directColumns)
	if err != nil {
		return err
	}

	src := SourceResult{File: filepath.Base(path), RowsRead: len(rows)}
	if len(rows) == 0 {
		log.Warn("source file has no data rows", zap.String("file", src.File))
		result.Sources = append(result.Sources, src)
		return nil
	}

	before := ec.TotalCount()
	candidates := NormalizeDirect(rows, src.File, ec)

	loaded, err := s.loadCandidates(ctx, candidates, cache, ec, result, log)
	if err != nil {
		return err
	}

	src.RecordsLoaded = loaded
	src.RowsSkipped = ec.TotalCount() - before
	result.RowsSkipped += src.RowsSkipped
	result.Sources = append(result.Sources, src)
	return nil
}

// loadJoined loads the split shipment file joined against the route file.
func (s *Service) loadJoined(ctx context.Context, shipmentPath, routePath string, cache *productCache, ec *csvimport.ErrorCollection, result *Result, log *zap.Logger) error {
	shipmentRows, err := readSource(shipmentPath, shipmentColumns)
	if err != nil {
		return err
	}
	routeRows, err := readSource(routePath, routeColumns)
	if err != nil {
		return err
	}

	shipmentSrc := SourceResult{File: filepath.Base(shipmentPath), RowsRead: len(shipmentRows)}
	routeSrc := SourceResult{File: filepath.Base(routePath), RowsRead: len(routeRows)}

	if len(shipmentRows) == 0 {
		log.Warn("source file has no data rows", zap.String("file", shipmentSrc.File))
	}
	if len(routeRows) == 0 {
		log.Warn("source file has no data rows", zap.String("file", routeSrc.File))
	}

	beforeRoutes := ec.TotalCount()
	routes := NormalizeRoutes(routeRows, ec)
	routeSrc.RowsSkipped = ec.TotalCount() - beforeRoutes

	beforeShipments := ec.TotalCount()
	candidates := NormalizeShipments(shipmentRows, routes, shipmentSrc.File, ec)

	loaded, err := s.loadCandidates(ctx, candidates, cache, ec, result, log)
	if err != nil {
		return err
	}

	shipmentSrc.RecordsLoaded = loaded
	shipmentSrc.RowsSkipped = ec.TotalCount() - beforeShipments
	result.RowsSkipped += shipmentSrc.RowsSkipped + routeSrc.RowsSkipped
	result.Sources = append(result.Sources, shipmentSrc, routeSrc)
	return nil
}

// loadCandidates persists candidates one at a time so a failing record
// never aborts the whole run. Only context cancellation is fatal.
func (s *Service) loadCandidates(ctx context.Context, candidates []shipping.Candidate, cache *productCache, ec *csvimport.ErrorCollection, result *Result, log *zap.Logger) (int, error) {
	loaded := 0
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return loaded, ctx.Err()
		default:
		}

		if err := c.Validate(); err != nil {
			ec.Add(csvimport.NewRowError(c.Line, colProduct, csvimport.ErrCodeMalformedRow, err.Error()))
			log.Warn("skipping record",
				zap.String("file", c.Source),
				zap.Int("row", c.Line),
				zap.Error(err),
			)
			continue
		}

		productID, created, err := s.resolveProduct(ctx, cache, c.Product)
		if err != nil {
			ec.AddInsertError(c.Line, colProduct, err)
			log.Warn("skipping record",
				zap.String("file", c.Source),
				zap.Int("row", c.Line),
				zap.String("product", c.Product),
				zap.Error(err),
			)
			continue
		}
		if created {
			result.ProductsCreated++
		}

		shipment := shipping.NewShipment(productID, c)
		if err := s.shipmentRepo.Create(ctx, shipment); err != nil {
			ec.AddInsertError(c.Line, "", err)
			log.Warn("skipping record",
				zap.String("file", c.Source),
				zap.Int("row", c.Line),
				zap.String("product", c.Product),
				zap.Error(err),
			)
			continue
		}

		loaded++
		result.ShipmentsLoaded++
		log.Debug("loaded shipment",
			zap.Int64("shipment_id", shipment.ID),
			zap.String("product", c.Product),
			zap.Int64("quantity", c.Quantity),
		)
	}
	return loaded, nil
}

// resolveProduct returns the database ID for a product name, creating the
// product row on first sight. The bool reports whether a row was created.
func (s *Service) resolveProduct(ctx context.Context, cache *productCache, name string) (int64, bool, error) {
	if id, ok := cache.get(name); ok {
		return id, false, nil
	}

	existing, err := s.productRepo.FindByName(ctx, name)
	if err == nil {
		cache.put(name, existing.ID)
		return existing.ID, false, nil
	}
	if err != shared.ErrNotFound {
		return 0, false, err
	}

	product, err := shipping.NewProduct(name)
	if err != nil {
		return 0, false, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		// Lost a race with another writer; the row exists now.
		if err == shared.ErrAlreadyExists {
			existing, ferr := s.productRepo.FindByName(ctx, name)
			if ferr != nil {
				return 0, false, ferr
			}
			cache.put(name, existing.ID)
			return existing.ID, false, nil
		}
		return 0, false, err
	}

	cache.put(name, product.ID)
	return product.ID, true, nil
}

// checkInputs verifies that every source file exists and is readable.
func checkInputs(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("input file not readable: %w", err)
		}
	}
	return nil
}

// readSource opens a source file, checks its header and reads every data
// row. A file holding nothing but the header yields no rows and no error.
func readSource(path string, required []string) ([]*csvimport.Row, error) {
	parser, err := csvimport.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	if err := parser.ValidateHeaders(required); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		if errors.Is(err, csvimport.ErrNoDataRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// productCache maps product names seen during one run to their database
// IDs so each distinct name costs at most one lookup.
type productCache struct {
	ids map[string]int64
}

func newProductCache() *productCache {
	return &productCache{ids: make(map[string]int64)}
}

func (c *productCache) get(name string) (int64, bool) {
	id, ok := c.ids[name]
	return id, ok
}

func (c *productCache) put(name string, id int64) {
	c.ids[name] = id
}
