package application

import (
	"context"
	"errors"
	"time"

	"carbonledger/internal/auth"
	documents "carbonledger/internal/documents/domain"
	ingest "carbonledger/internal/ingest/domain"
	"carbonledger/internal/observability/metrics"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// DocumentStore is the slice of the documents repository the ingest flow needs.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*documents.Document, error)
	MarkProcessed(ctx context.Context, id, status string, recordCount int, errorMessage string, processedAt time.Time) error
}

// Row outcome statuses.
const (
	OutcomeStored     = "stored"
	OutcomeUnresolved = "unresolved"
	OutcomeRejected   = "rejected"
)

// RowOutcome reports what happened to one raw row.
type RowOutcome struct {
	Index    int      `json:"index"`
	Status   string   `json:"status"`
	RecordID string   `json:"record_id,omitempty"`
	CO2e     *float64 `json:"co2e,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// BatchResult is the structured result of processing one batch of rows.
// Bad rows never abort the batch; every row gets an outcome.
type BatchResult struct {
	DocumentID string       `json:"document_id"`
	Stored     int          `json:"stored"`
	Unresolved int          `json:"unresolved"`
	Rejected   int          `json:"rejected"`
	Outcomes   []RowOutcome `json:"outcomes"`
}

// Service normalizes, classifies and stores parsed rows.
type Service struct {
	normalizer *ingest.Normalizer
	records    ingest.RecordRepository
	documents  DocumentStore
	clock      Clock
}

// NewService constructs an ingest service.
func NewService(normalizer *ingest.Normalizer, records ingest.RecordRepository, docs DocumentStore, clock Clock) (*Service, error) {
	if normalizer == nil {
		return nil, errors.New("ingest service: nil normalizer")
	}
	if records == nil {
		return nil, errors.New("ingest service: nil record repository")
	}
	if docs == nil {
		return nil, errors.New("ingest service: nil document store")
	}
	if clock == nil {
		return nil, errors.New("ingest service: nil clock")
	}
	return &Service{normalizer: normalizer, records: records, documents: docs, clock: clock}, nil
}

// ProcessBatch runs the normalize-classify-store pipeline over a batch of
// rows for one document. Rows failing validation are reported per-row and
// skipped; rows without a matching factor are stored with a null co2e.
// Re-processing a document appends new records rather than mutating old ones.
func (s *Service) ProcessBatch(ctx context.Context, documentID string, company ingest.CompanyContext, rows []ingest.RawRow) (*BatchResult, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIngestBatch(result, time.Since(start))
	}()

	if documentID == "" {
		result = metrics.ResultError
		return nil, errors.New("ingest service: document_id required")
	}
	if len(rows) == 0 {
		result = metrics.ResultError
		return nil, errors.New("ingest service: empty batch")
	}

	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if doc == nil {
		result = metrics.ResultError
		return nil, documents.ErrDocumentNotFound
	}
	if company.CompanyID != "" && doc.CompanyID != company.CompanyID {
		result = metrics.ResultError
		return nil, auth.ErrCompanyMismatch
	}

	batch := &BatchResult{DocumentID: documentID, Outcomes: make([]RowOutcome, 0, len(rows))}
	for i, row := range rows {
		record, err := s.normalizer.Normalize(row, company, s.clock.Now())
		if err != nil && !errors.Is(err, ingest.ErrUnresolvedFactor) {
			batch.Rejected++
			batch.Outcomes = append(batch.Outcomes, RowOutcome{Index: i, Status: OutcomeRejected, Error: err.Error()})
			continue
		}
		record.DocumentID = documentID

		if saveErr := s.records.Save(ctx, record); saveErr != nil {
			result = metrics.ResultError
			failedAt := s.clock.Now().UTC()
			_ = s.documents.MarkProcessed(ctx, documentID, documents.StatusFailed, batch.Stored+batch.Unresolved, saveErr.Error(), failedAt)
			return nil, saveErr
		}

		outcome := RowOutcome{Index: i, RecordID: record.ID, CO2e: record.CO2e}
		if errors.Is(err, ingest.ErrUnresolvedFactor) {
			batch.Unresolved++
			outcome.Status = OutcomeUnresolved
		} else {
			batch.Stored++
			outcome.Status = OutcomeStored
		}
		batch.Outcomes = append(batch.Outcomes, outcome)
	}

	metrics.AddIngestRows(metrics.RowOutcomeStored, batch.Stored)
	metrics.AddIngestRows(metrics.RowOutcomeUnresolved, batch.Unresolved)
	metrics.AddIngestRows(metrics.RowOutcomeRejected, batch.Rejected)

	processedAt := s.clock.Now().UTC()
	if err := s.documents.MarkProcessed(ctx, documentID, documents.StatusCompleted, batch.Stored+batch.Unresolved, "", processedAt); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return batch, nil
}
