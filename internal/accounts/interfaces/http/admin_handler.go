package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	accountsapp "carbonledger/internal/accounts/application"
	accounts "carbonledger/internal/accounts/domain"
	"carbonledger/internal/audit"
	"carbonledger/internal/auth"
)

// AdminHandler serves waitlist admin routes under /api/v1/admin/waitlist.
type AdminHandler struct {
	service     *accountsapp.Service
	auditLogger audit.Logger
}

// NewAdminHandler constructs a handler.
func NewAdminHandler(service *accountsapp.Service, auditLogger audit.Logger) (*AdminHandler, error) {
	if service == nil {
		return nil, errors.New("admin handler: nil service")
	}
	return &AdminHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP dispatches waitlist admin routes.
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "/api/v1/admin/waitlist" && r.Method == http.MethodGet {
		h.handleList(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/admin/waitlist/") {
		rest := strings.TrimPrefix(path, "/api/v1/admin/waitlist/")
		parts := strings.Split(rest, "/")
		id := parts[0]
		if id == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			h.handleGet(w, r, id)
			return
		case len(parts) == 1 && r.Method == http.MethodDelete:
			h.handleDelete(w, r, id)
			return
		case len(parts) == 2 && parts[1] == "promote" && r.Method == http.MethodPost:
			h.handlePromote(w, r, id)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *AdminHandler) handleList(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	search := r.URL.Query().Get("search")
	list, err := h.service.List(r.Context(), role, search)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := map[string]any{
		"total": len(list),
		"items": toSubmissionResponses(list),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondAccountsError(w, err)
		return
	}
	resp := map[string]any{
		"submission":       toSubmissionResponse(detail.Submission),
		"already_promoted": detail.Promoted,
	}
	if detail.CompanyID != "" {
		resp["company_id"] = detail.CompanyID
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) handlePromote(w http.ResponseWriter, r *http.Request, id string) {
	result, err := h.service.Promote(r.Context(), id)
	if err != nil {
		respondAccountsError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)
	h.logAudit(r, "waitlist.promote", id, map[string]any{
		"company_id": result.CompanyID,
		"email":      result.Email,
	})
}

func (h *AdminHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondAccountsError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"deleted": id})
	h.logAudit(r, "waitlist.delete", id, nil)
}

func (h *AdminHandler) logAudit(r *http.Request, action, submissionID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	var payload json.RawMessage
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		ID:           audit.NewID(),
		CompanyID:    auth.CompanyIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "waitlist_submission",
		ResourceID:   submissionID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

type submissionResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	CreatedAt  string `json:"created_at"`
	PromotedAt string `json:"promoted_at,omitempty"`
}

func toSubmissionResponse(submission accounts.WaitlistSubmission) submissionResponse {
	resp := submissionResponse{
		ID:        submission.ID,
		Name:      submission.Name,
		Company:   submission.Company,
		Email:     submission.Email,
		Role:      submission.Role,
		CreatedAt: submission.CreatedAt.Format(time.RFC3339),
	}
	if submission.Promoted() {
		resp.PromotedAt = submission.PromotedAt.Format(time.RFC3339)
	}
	return resp
}

func toSubmissionResponses(list []accounts.WaitlistSubmission) []submissionResponse {
	result := make([]submissionResponse, 0, len(list))
	for _, submission := range list {
		result = append(result, toSubmissionResponse(submission))
	}
	return result
}

func respondAccountsError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, accounts.ErrSubmissionNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, accounts.ErrAlreadyPromoted) {
		http.Error(w, "already promoted", http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
