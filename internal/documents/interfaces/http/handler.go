package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"carbonledger/internal/audit"
	"carbonledger/internal/auth"
	documentsapp "carbonledger/internal/documents/application"
	documents "carbonledger/internal/documents/domain"
)

// Handler provides document HTTP endpoints.
type Handler struct {
	service     *documentsapp.Service
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *documentsapp.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("documents handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

type registerRequest struct {
	Filename string `json:"filename"`
	FileType string `json:"file_type,omitempty"`
}

type documentResponse struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	FileType     string     `json:"file_type"`
	Status       string     `json:"status"`
	RecordCount  int        `json:"record_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// ServeHTTP handles POST/GET /api/v1/documents.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	if req.Filename == "" {
		http.Error(w, "filename required", http.StatusBadRequest)
		return
	}

	companyID := auth.CompanyIDFromContext(r.Context())
	if companyID == "" {
		http.Error(w, "company required", http.StatusForbidden)
		return
	}

	doc, err := h.service.Register(r.Context(), companyID, req.Filename, req.FileType)
	if err != nil {
		if errors.Is(err, documents.ErrInvalidDocument) {
			http.Error(w, "unsupported file type", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toResponse(*doc))

	h.logAudit(r, companyID, doc)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
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
	payload := make([]documentResponse, 0, len(list))
	for _, doc := range list {
		payload = append(payload, toResponse(doc))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) logAudit(r *http.Request, companyID string, doc *documents.Document) {
	if h.auditLogger == nil {
		return
	}
	meta, _ := json.Marshal(map[string]any{
		"filename":  doc.Filename,
		"file_type": doc.FileType,
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		ID:           audit.NewID(),
		CompanyID:    companyID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "document.register",
		ResourceType: "document",
		ResourceID:   doc.ID,
		Metadata:     meta,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func toResponse(doc documents.Document) documentResponse {
	resp := documentResponse{
		ID:           doc.ID,
		Filename:     doc.Filename,
		FileType:     doc.FileType,
		Status:       doc.Status,
		RecordCount:  doc.RecordCount,
		ErrorMessage: doc.ErrorMessage,
		UploadedAt:   doc.UploadedAt,
	}
	if !doc.ProcessedAt.IsZero() {
		processed := doc.ProcessedAt
		resp.ProcessedAt = &processed
	}
	return resp
}
