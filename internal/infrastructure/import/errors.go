package csvimport

import (
	"errors"
	"fmt"
)

// Error codes for row-level failures surfaced in logs and summaries.
const (
	ErrCodeMalformedRow    = "ERR_CSV_MALFORMED_ROW"
	ErrCodeRequiredField   = "ERR_ROW_REQUIRED_FIELD"
	ErrCodeInvalidQuantity = "ERR_ROW_INVALID_QUANTITY"
	ErrCodeInsertFailed    = "ERR_ROW_INSERT_FAILED"
)

// File-level errors returned while opening or reading a source file.
var (
	// ErrEmptyFile is returned when the file contains no bytes at all.
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")

	// ErrMissingHeader is returned when the file has no header row.
	ErrMissingHeader = errors.New("missing header row")

	// ErrNoDataRows is returned when the file has a header but no data rows.
	ErrNoDataRows = errors.New("no data rows found")
)

// RowError describes a problem with a specific row of a source file.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface.
func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new row error.
func NewRowError(row int, column, code, message string) *RowError {
	return &RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	}
}

// NewRowErrorWithValue creates a new row error that records the offending value.
func NewRowErrorWithValue(row int, column, code, message, value string) *RowError {
	return &RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
		Value:   value,
	}
}

// ErrorCollection accumulates row errors up to a maximum count. Rows past the
// cap are still counted so callers can report how many were dropped.
type ErrorCollection struct {
	errors     []*RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates an error collection capped at maxErrors.
// A non-positive cap falls back to 100.
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]*RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add appends an error to the collection if the cap has not been reached.
func (ec *ErrorCollection) Add(err *RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequiredError records a missing or empty required field.
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeRequiredField,
		fmt.Sprintf("required field '%s' is missing or empty", column)))
}

// AddQuantityError records a quantity value that is not a positive integer.
func (ec *ErrorCollection) AddQuantityError(row int, column, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeInvalidQuantity,
		"expected a positive integer", value))
}

// AddInsertError records a database failure for the row that produced the record.
func (ec *ErrorCollection) AddInsertError(row int, column string, err error) {
	ec.Add(NewRowError(row, column, ErrCodeInsertFailed, err.Error()))
}

// Errors returns the collected errors.
func (ec *ErrorCollection) Errors() []*RowError {
	return ec.errors
}

// Count returns the number of collected errors.
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// TotalCount returns the number of errors seen, including dropped ones.
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors reports whether any errors were recorded.
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated reports whether errors were dropped due to the cap.
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > len(ec.errors)
}

// Clear removes all errors from the collection.
func (ec *ErrorCollection) Clear() {
	ec.errors = ec.errors[:0]
	ec.totalCount = 0
}

// ErrorSummary returns counts of collected errors grouped by code.
func (ec *ErrorCollection) ErrorSummary() map[string]int {
	summary := make(map[string]int)
	for _, err := range ec.errors {
		summary[err.Code]++
	}
	return summary
}

// String returns a human-readable summary of the collection.
func (ec *ErrorCollection) String() string {
	if ec.totalCount == 0 {
		return "no errors"
	}
	if ec.IsTruncated() {
		return fmt.Sprintf("%d errors (%d shown)", ec.totalCount, len(ec.errors))
	}
	return fmt.Sprintf("%d errors", ec.totalCount)
}
