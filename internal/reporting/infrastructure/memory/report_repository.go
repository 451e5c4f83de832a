package memory

import (
	"context"
	"sort"
	"sync"

	reporting "carbonledger/internal/reporting/domain"
)

// ReportRepository is an in-memory report store for tests.
type ReportRepository struct {
	mu      sync.RWMutex
	reports []reporting.Report
}

// NewReportRepository constructs a repository.
func NewReportRepository() *ReportRepository {
	return &ReportRepository{}
}

// Create appends a report.
func (r *ReportRepository) Create(ctx context.Context, report *reporting.Report) error {
	_ = ctx
	r.mu.Lock()
	r.reports = append(r.reports, *report)
	r.mu.Unlock()
	return nil
}

// Get fetches a report by id.
func (r *ReportRepository) Get(ctx context.Context, id string) (*reporting.Report, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, report := range r.reports {
		if report.ID == id {
			copied := report
			return &copied, nil
		}
	}
	return nil, nil
}

// ListByCompany returns reports for a company, newest first.
func (r *ReportRepository) ListByCompany(ctx context.Context, companyID string) ([]reporting.Report, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []reporting.Report
	for _, report := range r.reports {
		if report.CompanyID == companyID {
			result = append(result, report)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// NextVersion returns 1 plus the highest stored version for (company, year).
func (r *ReportRepository) NextVersion(ctx context.Context, companyID string, year int) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := 0
	for _, report := range r.reports {
		if report.CompanyID == companyID && report.Year == year && report.Version > max {
			max = report.Version
		}
	}
	return max + 1, nil
}
