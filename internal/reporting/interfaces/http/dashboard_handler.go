package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"carbonledger/internal/auth"
	reportingapp "carbonledger/internal/reporting/application"
	reporting "carbonledger/internal/reporting/domain"
)

// DashboardHandler serves the live aggregation view.
type DashboardHandler struct {
	service *reportingapp.DashboardService
}

// NewDashboardHandler constructs a handler.
func NewDashboardHandler(service *reportingapp.DashboardService) (*DashboardHandler, error) {
	if service == nil {
		return nil, errors.New("dashboard handler: nil service")
	}
	return &DashboardHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/dashboard. Filters: year=YYYY, or
// from/to as RFC3339 timestamps (half-open range).
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	companyID := auth.CompanyIDFromContext(r.Context())
	if companyID == "" {
		http.Error(w, "company required", http.StatusForbidden)
		return
	}

	span, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	agg, err := h.service.Aggregate(r.Context(), companyID, span)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(agg)
}

func parseRange(r *http.Request) (reporting.DateRange, error) {
	if yearValue := r.URL.Query().Get("year"); yearValue != "" {
		year, err := strconv.Atoi(yearValue)
		if err != nil {
			return reporting.DateRange{}, errors.New("year must be numeric")
		}
		return reporting.YearRange(year), nil
	}
	var span reporting.DateRange
	if fromValue := r.URL.Query().Get("from"); fromValue != "" {
		from, err := time.Parse(time.RFC3339, fromValue)
		if err != nil {
			return reporting.DateRange{}, errors.New("from must be RFC3339")
		}
		span.From = from
	}
	if toValue := r.URL.Query().Get("to"); toValue != "" {
		to, err := time.Parse(time.RFC3339, toValue)
		if err != nil {
			return reporting.DateRange{}, errors.New("to must be RFC3339")
		}
		span.To = to
	}
	if !span.From.IsZero() && !span.To.IsZero() && !span.To.After(span.From) {
		return reporting.DateRange{}, errors.New("to must be after from")
	}
	return span, nil
}
