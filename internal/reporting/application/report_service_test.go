package application

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	ingest "carbonledger/internal/ingest/domain"
	ingestmemory "carbonledger/internal/ingest/infrastructure/memory"
	reporting "carbonledger/internal/reporting/domain"
	reportmemory "carbonledger/internal/reporting/infrastructure/memory"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func storeRecord(t *testing.T, records *ingestmemory.RecordRepository, companyID, category string, scope int, co2e float64, date time.Time) {
	t.Helper()
	value := co2e
	err := records.Save(context.Background(), ingest.Record{
		ID:        ingest.NewRecordID(),
		CompanyID: companyID,
		Category:  category,
		Scope:     scope,
		CO2e:      &value,
		Date:      date,
	})
	if err != nil {
		t.Fatalf("save record: %v", err)
	}
}

func newReportService(t *testing.T) (*ReportService, *ingestmemory.RecordRepository, *reportmemory.ReportRepository) {
	t.Helper()
	records := ingestmemory.NewRecordRepository()
	reports := reportmemory.NewReportRepository()
	clock := fixedClock{at: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	service, err := NewReportService(records, reports, clock)
	if err != nil {
		t.Fatalf("new report service: %v", err)
	}
	return service, records, reports
}

func TestGenerate_FreezesAggregation(t *testing.T) {
	service, records, _ := newReportService(t)
	storeRecord(t, records, "cmp-1", "electricity", ingest.Scope2, 23.3, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	storeRecord(t, records, "cmp-1", "diesel", ingest.Scope1, 134.0, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))

	report, err := service.Generate(context.Background(), "cmp-1", 2024)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Version != 1 {
		t.Fatalf("expected version 1, got %d", report.Version)
	}
	if math.Abs(report.TotalCO2e-157.3) > 1e-6 {
		t.Fatalf("expected total 157.3, got %v", report.TotalCO2e)
	}
	if report.Scope1CO2e != 134.0 || report.Scope2CO2e != 23.3 {
		t.Fatalf("unexpected scope split: %+v", report)
	}
	if report.CoveragePct != 100 || report.DataSourcesCount != 2 {
		t.Fatalf("unexpected coverage/count: %+v", report)
	}
	if report.SnapshotHash == "" {
		t.Fatal("expected snapshot hash")
	}
	if report.Methodology != Methodology {
		t.Fatalf("unexpected methodology %q", report.Methodology)
	}

	var monthly []reporting.MonthlyPoint
	if err := json.Unmarshal(report.MonthlyData, &monthly); err != nil {
		t.Fatalf("unmarshal monthly data: %v", err)
	}
	if len(monthly) != 2 || monthly[0].Month != "2024-01" || monthly[1].Month != "2024-02" {
		t.Fatalf("unexpected monthly data: %v", monthly)
	}
}

func TestGenerate_NoDataForPeriod(t *testing.T) {
	service, records, _ := newReportService(t)
	storeRecord(t, records, "cmp-1", "electricity", ingest.Scope2, 10, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	_, err := service.Generate(context.Background(), "cmp-1", 2024)
	if !errors.Is(err, reporting.ErrNoDataForPeriod) {
		t.Fatalf("expected ErrNoDataForPeriod, got %v", err)
	}
}

func TestGenerate_RegenerationVersions(t *testing.T) {
	service, records, _ := newReportService(t)
	storeRecord(t, records, "cmp-1", "electricity", ingest.Scope2, 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	first, err := service.Generate(context.Background(), "cmp-1", 2024)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	second, err := service.Generate(context.Background(), "cmp-1", 2024)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if first.Version != 1 || second.Version != 2 {
		t.Fatalf("expected versions 1 and 2, got %d and %d", first.Version, second.Version)
	}
	if first.ID == second.ID {
		t.Fatal("regeneration must create a distinct report row")
	}
	if first.TotalCO2e != second.TotalCO2e {
		t.Fatalf("unchanged records must yield identical totals: %v vs %v", first.TotalCO2e, second.TotalCO2e)
	}
}

func TestGet_EnforcesCompanyOwnership(t *testing.T) {
	service, records, _ := newReportService(t)
	storeRecord(t, records, "cmp-1", "electricity", ingest.Scope2, 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	report, err := service.Generate(context.Background(), "cmp-1", 2024)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := service.Get(context.Background(), "cmp-1", report.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := service.Get(context.Background(), "cmp-other", report.ID); !errors.Is(err, reporting.ErrReportNotFound) {
		t.Fatalf("expected not found for other company, got %v", err)
	}
	if _, err := service.Get(context.Background(), "cmp-1", "rpt-missing"); !errors.Is(err, reporting.ErrReportNotFound) {
		t.Fatalf("expected not found for missing id, got %v", err)
	}
}

func TestDashboardAggregate_LiveView(t *testing.T) {
	records := ingestmemory.NewRecordRepository()
	clock := fixedClock{at: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	service, err := NewDashboardService(records, clock)
	if err != nil {
		t.Fatalf("new dashboard service: %v", err)
	}

	storeRecord(t, records, "cmp-1", "electricity", ingest.Scope2, 23.3, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	agg, err := service.Aggregate(context.Background(), "cmp-1", reporting.YearRange(2024))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.TotalCO2e != 23.3 || agg.RecordCount != 1 {
		t.Fatalf("unexpected aggregation: %+v", agg)
	}

	storeRecord(t, records, "cmp-1", "diesel", ingest.Scope1, 134.0, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	agg, err = service.Aggregate(context.Background(), "cmp-1", reporting.YearRange(2024))
	if err != nil {
		t.Fatalf("aggregate after insert: %v", err)
	}
	if math.Abs(agg.TotalCO2e-157.3) > 1e-6 {
		t.Fatalf("dashboard must reflect new records, got %v", agg.TotalCO2e)
	}
}
