package ingest

import (
	"strconv"

	"github.com/shipdata/loader/internal/domain/shipping"
	csvimport "github.com/shipdata/loader/internal/infrastructure/import"
)

// Column names shared by the source files.
const (
	colShipmentID  = "shipment_identifier"
	colProduct     = "product"
	colQuantity    = "product_quantity"
	colOrigin      = "origin_warehouse"
	colDestination = "destination_store"
)

// Required header sets per source file.
var (
	directColumns   = []string{colProduct, colQuantity, colOrigin, colDestination}
	shipmentColumns = []string{colShipmentID, colProduct, colQuantity}
	routeColumns    = []string{colShipmentID, colOrigin, colDestination}
)

// Route is one shipment's endpoints from the route file. An endpoint left
// empty in the file stays nil and is stored as NULL.
type Route struct {
	Origin      *string
	Destination *string
}

// NormalizeDirect turns rows of the self-contained file into candidates,
// one candidate per row. Invalid rows are recorded and skipped.
func NormalizeDirect(rows []*csvimport.Row, source string, ec *csvimport.ErrorCollection) []shipping.Candidate {
	candidates := make([]shipping.Candidate, 0, len(rows))

	for _, row := range rows {
		name := row.Get(colProduct)
		if name == "" {
			ec.AddRequiredError(row.LineNumber, colProduct)
			continue
		}

		quantity, ok := parseQuantity(row, ec)
		if !ok {
			continue
		}

		candidates = append(candidates, shipping.Candidate{
			Product:     name,
			Quantity:    quantity,
			Origin:      optionalValue(row.Get(colOrigin)),
			Destination: optionalValue(row.Get(colDestination)),
			Line:        row.LineNumber,
			Source:      source,
		})
	}

	return candidates
}

// NormalizeRoutes indexes the route file by shipment identifier. When an
// identifier occurs more than once the last occurrence wins.
func NormalizeRoutes(rows []*csvimport.Row, ec *csvimport.ErrorCollection) map[string]Route {
	routes := make(map[string]Route, len(rows))

	for _, row := range rows {
		id := row.Get(colShipmentID)
		if id == "" {
			ec.AddRequiredError(row.LineNumber, colShipmentID)
			continue
		}
		routes[id] = Route{
			Origin:      optionalValue(row.Get(colOrigin)),
			Destination: optionalValue(row.Get(colDestination)),
		}
	}

	return routes
}

// groupKey identifies one product line within one shipment.
type groupKey struct {
	shipment string
	product  string
}

// group accumulates the quantity of a product line across split rows.
type group struct {
	key      groupKey
	quantity int64
	line     int
}

// NormalizeShipments folds rows of the split shipment file into candidates
// and joins each one against the route index. Rows sharing a shipment
// identifier and product become a single candidate whose quantity is the
// sum of the folded rows; candidates keep the order in which their first
// row appeared. A shipment with no route entry yields nil endpoints.
func NormalizeShipments(rows []*csvimport.Row, routes map[string]Route, source string, ec *csvimport.ErrorCollection) []shipping.Candidate {
	groups := make(map[groupKey]*group)
	order := make([]*group, 0, len(rows))

	for _, row := range rows {
		id := row.Get(colShipmentID)
		if id == "" {
			ec.AddRequiredError(row.LineNumber, colShipmentID)
			continue
		}

		name := row.Get(colProduct)
		if name == "" {
			ec.AddRequiredError(row.LineNumber, colProduct)
			continue
		}

		quantity, ok := parseQuantity(row, ec)
		if !ok {
			continue
		}

		key := groupKey{shipment: id, product: name}
		g, exists := groups[key]
		if !exists {
			g = &group{key: key, line: row.LineNumber}
			groups[key] = g
			order = append(order, g)
		}
		g.quantity += quantity
	}

	candidates := make([]shipping.Candidate, 0, len(order))
	for _, g := range order {
		r := routes[g.key.shipment]
		candidates = append(candidates, shipping.Candidate{
			Product:     g.key.product,
			Quantity:    g.quantity,
			Origin:      r.Origin,
			Destination: r.Destination,
			Line:        g.line,
			Source:      source,
		})
	}

	return candidates
}

// parseQuantity reads and validates the quantity column of a row,
// recording a row error when the value is missing or not a positive
// integer.
func parseQuantity(row *csvimport.Row, ec *csvimport.ErrorCollection) (int64, bool) {
	value := row.Get(colQuantity)
	if value == "" {
		ec.AddRequiredError(row.LineNumber, colQuantity)
		return 0, false
	}

	quantity, err := strconv.ParseInt(value, 10, 64)
	if err != nil || quantity <= 0 {
		ec.AddQuantityError(row.LineNumber, colQuantity, value)
		return 0, false
	}

	return quantity, true
}

// optionalValue maps an empty field to nil so it is stored as NULL.
func optionalValue(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
