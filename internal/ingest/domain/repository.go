package ingest

import (
	"context"
	"time"
)

// RecordRepository persists records. Records are append-only: there is no
// update or delete, which keeps stored co2e values auditable.
type RecordRepository interface {
	Save(ctx context.Context, record Record) error
	// FindByCompany returns records for a company whose date falls in
	// [from, to). A zero bound is unbounded on that side; records without
	// a date are only returned for fully unbounded queries.
	FindByCompany(ctx context.Context, companyID string, from, to time.Time) ([]Record, error)
	FindByDocument(ctx context.Context, documentID string) ([]Record, error)
}
