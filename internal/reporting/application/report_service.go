package application

import (
	"context"
	"errors"
	"time"

	ingest "carbonledger/internal/ingest/domain"
	"carbonledger/internal/observability/metrics"
	reporting "carbonledger/internal/reporting/domain"
)

// Methodology describes how report figures are computed. It is frozen into
// every snapshot so an exported report names its own calculation basis.
const Methodology = "GHG Protocol location-based; co2e = usage * emission factor per category/unit"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// RecordReader is the slice of the record repository reporting needs.
type RecordReader interface {
	FindByCompany(ctx context.Context, companyID string, from, to time.Time) ([]ingest.Record, error)
}

// ReportService builds and serves report snapshots.
type ReportService struct {
	records RecordReader
	reports reporting.ReportRepository
	clock   Clock
}

// NewReportService constructs a report service.
func NewReportService(records RecordReader, reports reporting.ReportRepository, clock Clock) (*ReportService, error) {
	if records == nil {
		return nil, errors.New("report service: nil record reader")
	}
	if reports == nil {
		return nil, errors.New("report service: nil report repository")
	}
	if clock == nil {
		return nil, errors.New("report service: nil clock")
	}
	return &ReportService{records: records, reports: reports, clock: clock}, nil
}

// Generate aggregates a company's records for one calendar year and freezes
// the result as a new immutable report version. Earlier versions stay
// untouched; callers pick the latest by created_at.
func (s *ReportService) Generate(ctx context.Context, companyID string, year int) (*reporting.Report, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportGenerate(result, time.Since(start))
	}()

	if companyID == "" {
		result = metrics.ResultError
		return nil, errors.New("report service: company id required")
	}
	if year < 1900 || year > 3000 {
		result = metrics.ResultError
		return nil, errors.New("report service: year out of range")
	}

	span := reporting.YearRange(year)
	records, err := s.records.FindByCompany(ctx, companyID, span.From, span.To)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if len(records) == 0 {
		result = metrics.ResultError
		return nil, reporting.ErrNoDataForPeriod
	}

	agg := reporting.Aggregate(records)

	version, err := s.reports.NextVersion(ctx, companyID, year)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	report, err := reporting.NewReport(companyID, year, version, agg, Methodology, s.clock.Now())
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := s.reports.Create(ctx, report); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return report, nil
}

// Get returns a report owned by the company.
func (s *ReportService) Get(ctx context.Context, companyID, id string) (*reporting.Report, error) {
	report, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, reporting.ErrReportNotFound
	}
	if companyID != "" && report.CompanyID != companyID {
		return nil, reporting.ErrReportNotFound
	}
	return report, nil
}

// List returns a company's reports, newest first.
func (s *ReportService) List(ctx context.Context, companyID string) ([]reporting.Report, error) {
	if companyID == "" {
		return nil, errors.New("report service: company id required")
	}
	return s.reports.ListByCompany(ctx, companyID)
}
