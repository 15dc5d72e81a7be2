package ingest

import (
	"time"

	csvimport "github.com/shipdata/loader/internal/infrastructure/import"
)

// RunMode defines how a load run treats rows already in the database
type RunMode string

const (
	// RunModeAppend keeps existing rows and adds the new ones
	RunModeAppend RunMode = "append"
	// RunModeReplace clears both tables in one transaction before loading
	RunModeReplace RunMode = "replace"
)

// IsValid checks if the run mode is valid
func (m RunMode) IsValid() bool {
	switch m {
	case RunModeAppend, RunModeReplace:
		return true
	}
	return false
}

// Options carries the parameters of one load run.
type Options struct {
	Mode         RunMode
	DirectPath   string
	ShipmentPath string
	RoutePath    string
	MaxRowErrors int
}

// SourceResult reports per-file counters for one source file.
type SourceResult struct {
	File          string `json:"file"`
	RowsRead      int    `json:"rows_read"`
	RecordsLoaded int    `json:"records_loaded"`
	RowsSkipped   int    `json:"rows_skipped"`
}

// Result reports the outcome of one load run.
type Result struct {
	RunID           string                `json:"run_id"`
	Mode            RunMode               `json:"mode"`
	Sources         []SourceResult        `json:"sources"`
	ProductsCreated int                   `json:"products_created"`
	ShipmentsLoaded int                   `json:"shipments_loaded"`
	RowsSkipped     int                   `json:"rows_skipped"`
	Errors          []*csvimport.RowError `json:"errors,omitempty"`
	IsTruncated     bool                  `json:"is_truncated,omitempty"`
	TotalErrors     int                   `json:"total_errors,omitempty"`
	Duration        time.Duration         `json:"duration"`
}
