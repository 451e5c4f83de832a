package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	accounts "carbonledger/internal/accounts/domain"
)

// Repository persists waitlist submissions and companies.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListSubmissions returns submissions newest first, optionally filtered.
func (r *Repository) ListSubmissions(ctx context.Context, role, search string) ([]accounts.WaitlistSubmission, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("accounts repo: nil db")
	}
	query := `
SELECT id, name, company, email, role, created_at, promoted_at
FROM waitlist_submissions
WHERE 1=1`
	var args []any
	if role != "" {
		args = append(args, role)
		query += ` AND role = $1`
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		placeholder := "$1"
		if role != "" {
			placeholder = "$2"
		}
		query += ` AND (name ILIKE ` + placeholder + ` OR company ILIKE ` + placeholder + ` OR email ILIKE ` + placeholder + `)`
	}
	query += `
ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []accounts.WaitlistSubmission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		if submission != nil {
			result = append(result, *submission)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSubmission fetches a submission by id.
func (r *Repository) GetSubmission(ctx context.Context, id string) (*accounts.WaitlistSubmission, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("accounts repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, company, email, role, created_at, promoted_at
FROM waitlist_submissions
WHERE id = $1
LIMIT 1`, id)
	return scanSubmission(row)
}

// DeleteSubmission removes a submission.
func (r *Repository) DeleteSubmission(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("accounts repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM waitlist_submissions WHERE id = $1`, id)
	return err
}

// FindCompanyByEmail fetches a company by email.
func (r *Repository) FindCompanyByEmail(ctx context.Context, email string) (*accounts.Company, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("accounts repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, COALESCE(sector, ''), COALESCE(country, ''), password_hash, created_at
FROM companies
WHERE email = $1
LIMIT 1`, email)
	var company accounts.Company
	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Email,
		&company.Sector,
		&company.Country,
		&company.PasswordHash,
		&company.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	company.CreatedAt = company.CreatedAt.UTC()
	return &company, nil
}

// Promote inserts the company and stamps the submission in one transaction.
// The unique index on companies(email) rejects concurrent double-promotes.
func (r *Repository) Promote(ctx context.Context, company *accounts.Company, submissionID string, promotedAt time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("accounts repo: nil db")
	}
	if company == nil {
		return errors.New("accounts repo: nil company")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO companies (id, name, email, sector, country, password_hash, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		company.ID, company.Name, company.Email, company.Sector, company.Country,
		company.PasswordHash, company.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE waitlist_submissions
SET promoted_at = $1
WHERE id = $2`, promotedAt, submissionID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*accounts.WaitlistSubmission, error) {
	var submission accounts.WaitlistSubmission
	var promotedAt sql.NullTime
	err := row.Scan(
		&submission.ID,
		&submission.Name,
		&submission.Company,
		&submission.Email,
		&submission.Role,
		&submission.CreatedAt,
		&promotedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if promotedAt.Valid {
		submission.PromotedAt = promotedAt.Time.UTC()
	}
	submission.CreatedAt = submission.CreatedAt.UTC()
	return &submission, nil
}
