package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	ingest "carbonledger/internal/ingest/domain"
	reporting "carbonledger/internal/reporting/domain"
)

// BuildReportPDF renders an emissions report as PDF.
func BuildReportPDF(report *reporting.Report) ([]byte, error) {
	monthly, categories := decodeReportSeries(report)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Emissions Report %d", report.Year))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report ID: %s", report.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Version: %d", report.Version))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Snapshot: %s", report.SnapshotHash))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Summary")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total emissions (tCO2e): %.2f", report.TotalCO2e))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Scope 1 (tCO2e): %.2f", report.Scope1CO2e))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Scope 2 (tCO2e): %.2f", report.Scope2CO2e))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Scope 3 (tCO2e): %.2f", report.Scope3CO2e))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Data coverage: %.2f%%", report.CoveragePct))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Data sources: %d records", report.DataSourcesCount))
	pdf.Ln(8)

	if len(monthly) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 6, "Month", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "CO2e (t)", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, point := range monthly {
			pdf.CellFormat(40, 6, point.Month, "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, fmt.Sprintf("%.3f", point.CO2e), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	if len(categories) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 6, "Category", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "CO2e (t)", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, category := range categories {
			pdf.CellFormat(60, 6, category.Category, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, fmt.Sprintf("%.3f", category.CO2e), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 6, "Methodology")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, report.Methodology, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders an emissions report as XLSX. records fills the
// detail sheet; the other sheets come from the frozen snapshot.
func BuildReportXLSX(report *reporting.Report, records []ingest.Record) ([]byte, error) {
	monthly, categories := decodeReportSeries(report)

	f := excelize.NewFile()
	summarySheet := "Summary"
	monthlySheet := "Monthly Breakdown"
	categorySheet := "Category Breakdown"
	recordsSheet := "Detailed Records"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(monthlySheet)
	f.NewSheet(categorySheet)
	f.NewSheet(recordsSheet)

	_ = f.SetCellValue(summarySheet, "A1", fmt.Sprintf("Emissions Report %d", report.Year))
	_ = f.SetCellValue(summarySheet, "A3", "Report ID")
	_ = f.SetCellValue(summarySheet, "B3", report.ID)
	_ = f.SetCellValue(summarySheet, "A4", "Version")
	_ = f.SetCellValue(summarySheet, "B4", report.Version)
	_ = f.SetCellValue(summarySheet, "A5", "Total (tCO2e)")
	_ = f.SetCellValue(summarySheet, "B5", report.TotalCO2e)
	_ = f.SetCellValue(summarySheet, "A6", "Scope 1 (tCO2e)")
	_ = f.SetCellValue(summarySheet, "B6", report.Scope1CO2e)
	_ = f.SetCellValue(summarySheet, "A7", "Scope 2 (tCO2e)")
	_ = f.SetCellValue(summarySheet, "B7", report.Scope2CO2e)
	_ = f.SetCellValue(summarySheet, "A8", "Scope 3 (tCO2e)")
	_ = f.SetCellValue(summarySheet, "B8", report.Scope3CO2e)
	_ = f.SetCellValue(summarySheet, "A9", "Data coverage (%)")
	_ = f.SetCellValue(summarySheet, "B9", report.CoveragePct)
	_ = f.SetCellValue(summarySheet, "A10", "Data sources")
	_ = f.SetCellValue(summarySheet, "B10", report.DataSourcesCount)
	_ = f.SetCellValue(summarySheet, "A11", "Methodology")
	_ = f.SetCellValue(summarySheet, "B11", report.Methodology)
	_ = f.SetCellValue(summarySheet, "A12", "Snapshot")
	_ = f.SetCellValue(summarySheet, "B12", report.SnapshotHash)

	_ = f.SetCellValue(monthlySheet, "A1", "Month")
	_ = f.SetCellValue(monthlySheet, "B1", "CO2e (t)")
	for i, point := range monthly {
		row := i + 2
		_ = f.SetCellValue(monthlySheet, fmt.Sprintf("A%d", row), point.Month)
		_ = f.SetCellValue(monthlySheet, fmt.Sprintf("B%d", row), point.CO2e)
	}

	_ = f.SetCellValue(categorySheet, "A1", "Category")
	_ = f.SetCellValue(categorySheet, "B1", "CO2e (t)")
	for i, category := range categories {
		row := i + 2
		_ = f.SetCellValue(categorySheet, fmt.Sprintf("A%d", row), category.Category)
		_ = f.SetCellValue(categorySheet, fmt.Sprintf("B%d", row), category.CO2e)
	}

	_ = f.SetCellValue(recordsSheet, "A1", "Date")
	_ = f.SetCellValue(recordsSheet, "B1", "Supplier")
	_ = f.SetCellValue(recordsSheet, "C1", "Category")
	_ = f.SetCellValue(recordsSheet, "D1", "Usage")
	_ = f.SetCellValue(recordsSheet, "E1", "Unit")
	_ = f.SetCellValue(recordsSheet, "F1", "Scope")
	_ = f.SetCellValue(recordsSheet, "G1", "CO2e (t)")
	_ = f.SetCellValue(recordsSheet, "H1", "Factor source")
	for i, record := range records {
		row := i + 2
		if !record.Date.IsZero() {
			_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", row), record.Date.Format("2006-01-02"))
		}
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", row), record.Supplier)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", row), record.Category)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", row), record.Usage)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("E%d", row), record.Unit)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("F%d", row), record.Scope)
		if record.CO2e != nil {
			_ = f.SetCellValue(recordsSheet, fmt.Sprintf("G%d", row), *record.CO2e)
		}
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("H%d", row), record.FactorSource)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeReportSeries(report *reporting.Report) ([]reporting.MonthlyPoint, []reporting.CategoryTotal) {
	var monthly []reporting.MonthlyPoint
	var categories []reporting.CategoryTotal
	_ = json.Unmarshal(report.MonthlyData, &monthly)
	_ = json.Unmarshal(report.Breakdown, &categories)
	return monthly, categories
}
