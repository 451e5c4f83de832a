package postgres

import (
	"context"
	"database/sql"
	"errors"

	reporting "carbonledger/internal/reporting/domain"
)

// ReportRepository persists report snapshots in postgres.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository constructs a repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report. Reports are never updated.
func (r *ReportRepository) Create(ctx context.Context, report *reporting.Report) error {
	if r == nil || r.db == nil {
		return errors.New("report repo: nil db")
	}
	if report == nil {
		return errors.New("report repo: nil report")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reports (
	id, company_id, year, version, total_co2e, scope1_co2e, scope2_co2e, scope3_co2e,
	breakdown, monthly_data, coverage_pct, data_sources_count, methodology, snapshot_hash, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
)`,
		report.ID, report.CompanyID, report.Year, report.Version,
		report.TotalCO2e, report.Scope1CO2e, report.Scope2CO2e, report.Scope3CO2e,
		[]byte(report.Breakdown), []byte(report.MonthlyData),
		report.CoveragePct, report.DataSourcesCount, report.Methodology, report.SnapshotHash, report.CreatedAt)
	return err
}

// Get fetches a report by id.
func (r *ReportRepository) Get(ctx context.Context, id string) (*reporting.Report, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, company_id, year, version, total_co2e, scope1_co2e, scope2_co2e, scope3_co2e,
	breakdown, monthly_data, coverage_pct, data_sources_count, methodology, snapshot_hash, created_at
FROM reports
WHERE id = $1
LIMIT 1`, id)
	return scanReport(row)
}

// ListByCompany returns reports for a company, newest first.
func (r *ReportRepository) ListByCompany(ctx context.Context, companyID string) ([]reporting.Report, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company_id, year, version, total_co2e, scope1_co2e, scope2_co2e, scope3_co2e,
	breakdown, monthly_data, coverage_pct, data_sources_count, methodology, snapshot_hash, created_at
FROM reports
WHERE company_id = $1
ORDER BY created_at DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []reporting.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		if report != nil {
			result = append(result, *report)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// NextVersion returns 1 plus the highest stored version for (company, year).
func (r *ReportRepository) NextVersion(ctx context.Context, companyID string, year int) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("report repo: nil db")
	}
	var version int
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(MAX(version), 0) + 1
FROM reports
WHERE company_id = $1 AND year = $2`, companyID, year).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*reporting.Report, error) {
	var report reporting.Report
	var breakdown []byte
	var monthly []byte
	err := row.Scan(
		&report.ID,
		&report.CompanyID,
		&report.Year,
		&report.Version,
		&report.TotalCO2e,
		&report.Scope1CO2e,
		&report.Scope2CO2e,
		&report.Scope3CO2e,
		&breakdown,
		&monthly,
		&report.CoveragePct,
		&report.DataSourcesCount,
		&report.Methodology,
		&report.SnapshotHash,
		&report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	report.Breakdown = breakdown
	report.MonthlyData = monthly
	report.CreatedAt = report.CreatedAt.UTC()
	return &report, nil
}
