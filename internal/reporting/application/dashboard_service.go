package application

import (
	"context"
	"errors"
	"time"

	"carbonledger/internal/observability/metrics"
	reporting "carbonledger/internal/reporting/domain"
)

// DashboardService computes the live aggregation view.
type DashboardService struct {
	records RecordReader
	clock   Clock
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(records RecordReader, clock Clock) (*DashboardService, error) {
	if records == nil {
		return nil, errors.New("dashboard service: nil record reader")
	}
	if clock == nil {
		return nil, errors.New("dashboard service: nil clock")
	}
	return &DashboardService{records: records, clock: clock}, nil
}

// Aggregate recomputes the aggregation for a company over a date range.
// The result is derived on every call, never cached or persisted.
func (s *DashboardService) Aggregate(ctx context.Context, companyID string, span reporting.DateRange) (*reporting.AggregationResult, error) {
	start := s.clock.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveDashboard(result, time.Since(start))
	}()

	if companyID == "" {
		result = metrics.ResultError
		return nil, errors.New("dashboard service: company id required")
	}
	records, err := s.records.FindByCompany(ctx, companyID, span.From, span.To)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	agg := reporting.Aggregate(records)
	return &agg, nil
}
