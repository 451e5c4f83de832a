package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	ingest "carbonledger/internal/ingest/domain"
)

// RecordRepository is an in-memory record store for tests.
type RecordRepository struct {
	mu      sync.RWMutex
	records []ingest.Record
}

// NewRecordRepository constructs a repository.
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{}
}

// Save appends a record.
func (r *RecordRepository) Save(ctx context.Context, record ingest.Record) error {
	_ = ctx
	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()
	return nil
}

// FindByCompany returns records for a company whose date falls in [from, to).
func (r *RecordRepository) FindByCompany(ctx context.Context, companyID string, from, to time.Time) ([]ingest.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ingest.Record
	for _, record := range r.records {
		if record.CompanyID != companyID {
			continue
		}
		if !from.IsZero() || !to.IsZero() {
			if record.Date.IsZero() {
				continue
			}
			if !from.IsZero() && record.Date.Before(from) {
				continue
			}
			if !to.IsZero() && !record.Date.Before(to) {
				continue
			}
		}
		result = append(result, record)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// FindByDocument returns records belonging to a document.
func (r *RecordRepository) FindByDocument(ctx context.Context, documentID string) ([]ingest.Record, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ingest.Record
	for _, record := range r.records {
		if record.DocumentID == documentID {
			result = append(result, record)
		}
	}
	return result, nil
}

// Len returns the stored record count, for assertion convenience.
func (r *RecordRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
