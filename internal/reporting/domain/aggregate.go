package reporting

import (
	"math"
	"sort"
	"time"

	ingest "carbonledger/internal/ingest/domain"
)

// DateRange is a half-open [From, To) interval. A zero bound is unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// YearRange returns the range covering one calendar year, UTC.
func YearRange(year int) DateRange {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{From: from, To: from.AddDate(1, 0, 0)}
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// MonthlyPoint is one month of summed emissions, keyed "2006-01".
type MonthlyPoint struct {
	Month string  `json:"month"`
	CO2e  float64 `json:"co2e"`
}

// CategoryTotal is one category's summed emissions. Order of appearance in
// the input record set is preserved so rendered breakdowns are stable.
type CategoryTotal struct {
	Category string  `json:"category"`
	CO2e     float64 `json:"co2e"`
}

// AggregationResult is the derived emissions view over a record set. It is
// a value: recomputed on demand, never persisted per-request.
type AggregationResult struct {
	TotalCO2e         float64         `json:"total_co2e"`
	Scope1CO2e        float64         `json:"scope1_co2e"`
	Scope2CO2e        float64         `json:"scope2_co2e"`
	Scope3CO2e        float64         `json:"scope3_co2e"`
	DataCoveragePct   float64         `json:"data_coverage_pct"`
	RecordCount       int             `json:"record_count"`
	ResolvedCount     int             `json:"resolved_count"`
	MonthlySeries     []MonthlyPoint  `json:"monthly_series"`
	CategoryBreakdown []CategoryTotal `json:"category_breakdown"`
}

// Aggregate folds a record set into totals, a sparse chronological monthly
// series, a first-seen-ordered category breakdown and a coverage percentage.
// It is a pure function: identical inputs yield identical results. Records
// with a null co2e count toward coverage's denominator only.
func Aggregate(records []ingest.Record) AggregationResult {
	result := AggregationResult{
		MonthlySeries:     []MonthlyPoint{},
		CategoryBreakdown: []CategoryTotal{},
	}
	if len(records) == 0 {
		return result
	}

	monthTotals := make(map[string]float64)
	categoryIndex := make(map[string]int)

	for _, record := range records {
		result.RecordCount++
		if record.CO2e == nil {
			continue
		}
		value := *record.CO2e
		result.ResolvedCount++
		result.TotalCO2e += value
		switch record.Scope {
		case ingest.Scope1:
			result.Scope1CO2e += value
		case ingest.Scope2:
			result.Scope2CO2e += value
		case ingest.Scope3:
			result.Scope3CO2e += value
		}

		if !record.Date.IsZero() {
			monthTotals[record.Date.UTC().Format("2006-01")] += value
		}

		idx, seen := categoryIndex[record.Category]
		if !seen {
			categoryIndex[record.Category] = len(result.CategoryBreakdown)
			result.CategoryBreakdown = append(result.CategoryBreakdown, CategoryTotal{Category: record.Category})
			idx = len(result.CategoryBreakdown) - 1
		}
		result.CategoryBreakdown[idx].CO2e += value
	}

	months := make([]string, 0, len(monthTotals))
	for month := range monthTotals {
		months = append(months, month)
	}
	sort.Strings(months)
	for _, month := range months {
		result.MonthlySeries = append(result.MonthlySeries, MonthlyPoint{Month: month, CO2e: monthTotals[month]})
	}

	result.DataCoveragePct = coveragePct(result.ResolvedCount, result.RecordCount)
	return result
}

func coveragePct(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(resolved) / float64(total) * 100
	return math.Round(pct*100) / 100
}
