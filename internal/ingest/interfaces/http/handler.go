package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"carbonledger/internal/audit"
	"carbonledger/internal/auth"
	documents "carbonledger/internal/documents/domain"
	ingestapp "carbonledger/internal/ingest/application"
	ingest "carbonledger/internal/ingest/domain"
)

// Handler provides row ingestion HTTP endpoints.
type Handler struct {
	service     *ingestapp.Service
	checker     auth.DocumentCompanyChecker
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *ingestapp.Service, checker auth.DocumentCompanyChecker, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("ingest handler: nil service")
	}
	return &Handler{service: service, checker: checker, auditLogger: auditLogger}, nil
}

type ingestRequest struct {
	DocumentID string          `json:"document_id"`
	Country    string          `json:"country,omitempty"`
	Rows       []ingest.RawRow `json:"rows"`
}

// ServeHTTP handles POST /api/v1/ingest/rows.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		http.Error(w, "document_id required", http.StatusBadRequest)
		return
	}
	if len(req.Rows) == 0 {
		http.Error(w, "rows required", http.StatusBadRequest)
		return
	}

	companyID := auth.CompanyIDFromContext(r.Context())
	if companyID != "" && h.checker != nil {
		if err := h.checker.EnsureDocumentCompany(r.Context(), companyID, req.DocumentID); err != nil {
			respondCompanyError(w, err)
			return
		}
	}

	company := ingest.CompanyContext{CompanyID: companyID, Country: req.Country}
	result, err := h.service.ProcessBatch(r.Context(), req.DocumentID, company, req.Rows)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrDocumentNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
		case errors.Is(err, auth.ErrCompanyMismatch):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)

	h.logAudit(r, companyID, result, body)
}

func (h *Handler) logAudit(r *http.Request, companyID string, result *ingestapp.BatchResult, payload []byte) {
	if h.auditLogger == nil || companyID == "" {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"stored":     result.Stored,
		"unresolved": result.Unresolved,
		"rejected":   result.Rejected,
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		ID:            audit.NewID(),
		CompanyID:     companyID,
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        "ingest.rows",
		ResourceType:  "document",
		ResourceID:    result.DocumentID,
		Metadata:      meta,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}

func respondCompanyError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrCompanyMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "company check failed", http.StatusInternalServerError)
}
