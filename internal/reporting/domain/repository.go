package reporting

import "context"

// ReportRepository persists report snapshots. Reports are insert-only.
type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	// ListByCompany returns reports newest first.
	ListByCompany(ctx context.Context, companyID string) ([]Report, error)
	// NextVersion returns 1 plus the highest existing version for the pair.
	NextVersion(ctx context.Context, companyID string, year int) (int, error)
}
