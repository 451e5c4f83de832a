package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	documents "carbonledger/internal/documents/domain"
)

// DocumentRepository persists documents.
type DocumentRepository struct {
	db *sql.DB
}

// NewDocumentRepository constructs a repository.
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a document.
func (r *DocumentRepository) Create(ctx context.Context, doc *documents.Document) error {
	if r == nil || r.db == nil {
		return errors.New("document repo: nil db")
	}
	if doc == nil {
		return errors.New("document repo: nil document")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, company_id, filename, file_type, status, record_count, error_message, uploaded_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		doc.ID, doc.CompanyID, doc.Filename, doc.FileType, doc.Status, doc.RecordCount, doc.ErrorMessage, doc.UploadedAt)
	return err
}

// Get fetches a document by id.
func (r *DocumentRepository) Get(ctx context.Context, id string) (*documents.Document, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("document repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, company_id, filename, file_type, status, record_count, COALESCE(error_message, ''), uploaded_at, processed_at
FROM documents
WHERE id = $1
LIMIT 1`, id)
	return scanDocument(row)
}

// ListByCompany returns documents for a company, newest first.
func (r *DocumentRepository) ListByCompany(ctx context.Context, companyID string) ([]documents.Document, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("document repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company_id, filename, file_type, status, record_count, COALESCE(error_message, ''), uploaded_at, processed_at
FROM documents
WHERE company_id = $1
ORDER BY uploaded_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []documents.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			result = append(result, *doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkProcessed records the processing outcome of a document.
func (r *DocumentRepository) MarkProcessed(ctx context.Context, id, status string, recordCount int, errorMessage string, processedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("document repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $1, record_count = $2, error_message = $3, processed_at = $4
WHERE id = $5`, status, recordCount, errorMessage, processedAt, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*documents.Document, error) {
	var doc documents.Document
	var processedAt sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.CompanyID,
		&doc.Filename,
		&doc.FileType,
		&doc.Status,
		&doc.RecordCount,
		&doc.ErrorMessage,
		&doc.UploadedAt,
		&processedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if processedAt.Valid {
		doc.ProcessedAt = processedAt.Time.UTC()
	}
	doc.UploadedAt = doc.UploadedAt.UTC()
	return &doc, nil
}
