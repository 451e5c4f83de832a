package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ingest "carbonledger/internal/ingest/domain"
)

// RecordRepository persists records in postgres.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository constructs a repository.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Save inserts a record. Records are never updated in place.
func (r *RecordRepository) Save(ctx context.Context, record ingest.Record) error {
	if r == nil || r.db == nil {
		return errors.New("record repo: nil db")
	}
	var co2e sql.NullFloat64
	if record.CO2e != nil {
		co2e = sql.NullFloat64{Float64: *record.CO2e, Valid: true}
	}
	var cost sql.NullFloat64
	if record.Cost != nil {
		cost = sql.NullFloat64{Float64: *record.Cost, Valid: true}
	}
	var date sql.NullTime
	if !record.Date.IsZero() {
		date = sql.NullTime{Time: record.Date, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO records (
	id, document_id, company_id, supplier, category, usage, unit, cost,
	scope, co2e, factor_source, emission_factor, date, invoice_number, notes, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
)`,
		record.ID, record.DocumentID, record.CompanyID, record.Supplier, record.Category,
		record.Usage, record.Unit, cost, record.Scope, co2e, record.FactorSource,
		record.EmissionFactor, date, record.InvoiceNumber, record.Notes, record.CreatedAt)
	return err
}

// FindByCompany returns records whose date falls in [from, to).
func (r *RecordRepository) FindByCompany(ctx context.Context, companyID string, from, to time.Time) ([]ingest.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	query := `
SELECT id, document_id, company_id, COALESCE(supplier, ''), category, usage, unit, cost,
	scope, co2e, factor_source, emission_factor, date, COALESCE(invoice_number, ''), COALESCE(notes, ''), created_at
FROM records
WHERE company_id = $1`
	args := []any{companyID}
	if !from.IsZero() {
		args = append(args, from)
		query += ` AND date >= $2`
	}
	if !to.IsZero() {
		args = append(args, to)
		if from.IsZero() {
			query += ` AND date < $2`
		} else {
			query += ` AND date < $3`
		}
	}
	query += `
ORDER BY date ASC NULLS LAST, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// FindByDocument returns records belonging to a document.
func (r *RecordRepository) FindByDocument(ctx context.Context, documentID string) ([]ingest.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("record repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, company_id, COALESCE(supplier, ''), category, usage, unit, cost,
	scope, co2e, factor_source, emission_factor, date, COALESCE(invoice_number, ''), COALESCE(notes, ''), created_at
FROM records
WHERE document_id = $1
ORDER BY created_at ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]ingest.Record, error) {
	var result []ingest.Record
	for rows.Next() {
		var record ingest.Record
		var cost sql.NullFloat64
		var co2e sql.NullFloat64
		var date sql.NullTime
		err := rows.Scan(
			&record.ID,
			&record.DocumentID,
			&record.CompanyID,
			&record.Supplier,
			&record.Category,
			&record.Usage,
			&record.Unit,
			&cost,
			&record.Scope,
			&co2e,
			&record.FactorSource,
			&record.EmissionFactor,
			&date,
			&record.InvoiceNumber,
			&record.Notes,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if cost.Valid {
			value := cost.Float64
			record.Cost = &value
		}
		if co2e.Valid {
			value := co2e.Float64
			record.CO2e = &value
		}
		if date.Valid {
			record.Date = date.Time.UTC()
		}
		record.CreatedAt = record.CreatedAt.UTC()
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
