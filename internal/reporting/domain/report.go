package reporting

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Report is a frozen snapshot of an aggregation result. Reports are
// immutable after creation; regenerating a (company, year) pair creates a
// new row with the next version.
type Report struct {
	ID               string
	CompanyID        string
	Year             int
	Version          int
	TotalCO2e        float64
	Scope1CO2e       float64
	Scope2CO2e       float64
	Scope3CO2e       float64
	Breakdown        json.RawMessage
	MonthlyData      json.RawMessage
	CoveragePct      float64
	DataSourcesCount int
	Methodology      string
	SnapshotHash     string
	CreatedAt        time.Time
}

// NewReport freezes an aggregation result into a report.
func NewReport(companyID string, year, version int, agg AggregationResult, methodology string, now time.Time) (*Report, error) {
	if companyID == "" {
		return nil, errors.New("reporting: empty company id")
	}
	if year < 1900 || year > 3000 {
		return nil, errors.New("reporting: year out of range")
	}
	if version < 1 {
		return nil, errors.New("reporting: version must be positive")
	}
	breakdown, err := json.Marshal(agg.CategoryBreakdown)
	if err != nil {
		return nil, err
	}
	monthly, err := json.Marshal(agg.MonthlySeries)
	if err != nil {
		return nil, err
	}
	report := &Report{
		ID:               BuildReportID(companyID, year, version),
		CompanyID:        companyID,
		Year:             year,
		Version:          version,
		TotalCO2e:        agg.TotalCO2e,
		Scope1CO2e:       agg.Scope1CO2e,
		Scope2CO2e:       agg.Scope2CO2e,
		Scope3CO2e:       agg.Scope3CO2e,
		Breakdown:        breakdown,
		MonthlyData:      monthly,
		CoveragePct:      agg.DataCoveragePct,
		DataSourcesCount: agg.RecordCount,
		Methodology:      methodology,
		CreatedAt:        now.UTC(),
	}
	report.SnapshotHash = computeSnapshotHash(report)
	return report, nil
}

// BuildReportID derives a stable report id from its identity triple.
func BuildReportID(companyID string, year, version int) string {
	base := companyID + "|" + strconv.Itoa(year) + "|" + strconv.Itoa(version)
	hash := sha256.Sum256([]byte(base))
	return "rpt-" + hex.EncodeToString(hash[:8])
}

func computeSnapshotHash(report *Report) string {
	payload := struct {
		CompanyID   string          `json:"company_id"`
		Year        int             `json:"year"`
		Version     int             `json:"version"`
		TotalCO2e   float64         `json:"total_co2e"`
		Scope1CO2e  float64         `json:"scope1_co2e"`
		Scope2CO2e  float64         `json:"scope2_co2e"`
		Scope3CO2e  float64         `json:"scope3_co2e"`
		Breakdown   json.RawMessage `json:"breakdown"`
		MonthlyData json.RawMessage `json:"monthly_data"`
		CoveragePct float64         `json:"coverage_pct"`
		Methodology string          `json:"methodology"`
	}{
		CompanyID:   report.CompanyID,
		Year:        report.Year,
		Version:     report.Version,
		TotalCO2e:   report.TotalCO2e,
		Scope1CO2e:  report.Scope1CO2e,
		Scope2CO2e:  report.Scope2CO2e,
		Scope3CO2e:  report.Scope3CO2e,
		Breakdown:   report.Breakdown,
		MonthlyData: report.MonthlyData,
		CoveragePct: report.CoveragePct,
		Methodology: report.Methodology,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
