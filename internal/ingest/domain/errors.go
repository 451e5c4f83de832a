package ingest

import "errors"

var (
	// ErrInvalidRecordData is returned when a raw row fails schema validation.
	// The row is rejected before normalization; the batch continues.
	ErrInvalidRecordData = errors.New("ingest: invalid record data")
	// ErrUnresolvedFactor is returned when no emission factor matches the row.
	// The record is still stored, with a null co2e.
	ErrUnresolvedFactor = errors.New("ingest: unresolved emission factor")
	// ErrRecordNotFound is returned when a record does not exist.
	ErrRecordNotFound = errors.New("ingest: record not found")
)
