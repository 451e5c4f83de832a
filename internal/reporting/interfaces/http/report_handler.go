package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"carbonledger/internal/audit"
	"carbonledger/internal/auth"
	ingest "carbonledger/internal/ingest/domain"
	"carbonledger/internal/observability/metrics"
	reportingapp "carbonledger/internal/reporting/application"
	reporting "carbonledger/internal/reporting/domain"
)

// ReportHandler handles report APIs under /api/v1/reports.
type ReportHandler struct {
	service     *reportingapp.ReportService
	records     reportingapp.RecordReader
	auditLogger audit.Logger
}

// NewReportHandler constructs a handler.
func NewReportHandler(service *reportingapp.ReportService, records reportingapp.RecordReader, auditLogger audit.Logger) (*ReportHandler, error) {
	if service == nil {
		return nil, errors.New("report handler: nil service")
	}
	return &ReportHandler{service: service, records: records, auditLogger: auditLogger}, nil
}

type reportResponse struct {
	ID               string          `json:"id"`
	Year             int             `json:"year"`
	Version          int             `json:"version"`
	TotalCO2e        float64         `json:"total_co2e"`
	Scope1CO2e       float64         `json:"scope1_co2e"`
	Scope2CO2e       float64         `json:"scope2_co2e"`
	Scope3CO2e       float64         `json:"scope3_co2e"`
	Breakdown        json.RawMessage `json:"breakdown"`
	MonthlyData      json.RawMessage `json:"monthly_data"`
	CoveragePct      float64         `json:"coverage_pct"`
	DataSourcesCount int             `json:"data_sources_count"`
	Methodology      string          `json:"methodology"`
	SnapshotHash     string          `json:"snapshot_hash"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ServeHTTP handles report routes.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/reports/generate" && r.Method == http.MethodPost {
		h.handleGenerate(w, r)
		return
	}
	if path == "/api/v1/reports" && r.Method == http.MethodGet {
		h.handleList(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/reports/") {
		rest := strings.TrimPrefix(path, "/api/v1/reports/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ReportHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year int `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	companyID := auth.CompanyIDFromContext(r.Context())
	if companyID == "" {
		http.Error(w, "company required", http.StatusForbidden)
		return
	}

	report, err := h.service.Generate(r.Context(), companyID, req.Year)
	if err != nil {
		if errors.Is(err, reporting.ErrNoDataForPeriod) {
			http.Error(w, "no data for period", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toReportResponse(report))
	h.logAudit(r, companyID, report.ID, "report.generate", map[string]any{
		"year":    report.Year,
		"version": report.Version,
	})
}

func (h *ReportHandler) handleList(w http.ResponseWriter, r *http.Request) {
	companyID := auth.CompanyIDFromContext(r.Context())
	if companyID == "" {
		http.Error(w, "company required", http.StatusForbidden)
		return
	}
	list, err := h.service.List(r.Context(), companyID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	payload := make([]reportResponse, 0, len(list))
	for i := range list {
		payload = append(payload, toReportResponse(&list[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *ReportHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" || r.Method != http.MethodGet {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "export.pdf":
			h.handleExport(w, r, id, "pdf")
			return
		case "export.xlsx":
			h.handleExport(w, r, id, "xlsx")
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ReportHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	companyID := auth.CompanyIDFromContext(r.Context())
	report, err := h.service.Get(r.Context(), companyID, id)
	if err != nil {
		respondReportError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toReportResponse(report))
}

func (h *ReportHandler) handleExport(w http.ResponseWriter, r *http.Request, id, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport(format, result, time.Since(start))
	}()

	companyID := auth.CompanyIDFromContext(r.Context())
	report, err := h.service.Get(r.Context(), companyID, id)
	if err != nil {
		result = metrics.ResultError
		respondReportError(w, err)
		return
	}

	records := h.reportRecords(r, report)

	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = BuildReportPDF(report)
		contentType = "application/pdf"
	case "xlsx":
		data, err = BuildReportXLSX(report, records)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, companyID, report.ID, "report.export", map[string]any{"format": format})
}

// reportRecords refetches the report year's records for the detail sheet.
// Export still succeeds without them.
func (h *ReportHandler) reportRecords(r *http.Request, report *reporting.Report) []ingest.Record {
	if h.records == nil {
		return nil
	}
	span := reporting.YearRange(report.Year)
	records, err := h.records.FindByCompany(r.Context(), report.CompanyID, span.From, span.To)
	if err != nil {
		return nil
	}
	return records
}

func (h *ReportHandler) logAudit(r *http.Request, companyID, reportID, action string, meta map[string]any) {
	if h.auditLogger == nil || companyID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		ID:           audit.NewID(),
		CompanyID:    companyID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "report",
		ResourceID:   reportID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func toReportResponse(report *reporting.Report) reportResponse {
	return reportResponse{
		ID:               report.ID,
		Year:             report.Year,
		Version:          report.Version,
		TotalCO2e:        report.TotalCO2e,
		Scope1CO2e:       report.Scope1CO2e,
		Scope2CO2e:       report.Scope2CO2e,
		Scope3CO2e:       report.Scope3CO2e,
		Breakdown:        report.Breakdown,
		MonthlyData:      report.MonthlyData,
		CoveragePct:      report.CoveragePct,
		DataSourcesCount: report.DataSourcesCount,
		Methodology:      report.Methodology,
		SnapshotHash:     report.SnapshotHash,
		CreatedAt:        report.CreatedAt,
	}
}

func respondReportError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, reporting.ErrReportNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
