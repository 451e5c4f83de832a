package http

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carbonledger/internal/auth"
	documents "carbonledger/internal/documents/domain"
	"carbonledger/internal/factors"
	ingestapp "carbonledger/internal/ingest/application"
	ingest "carbonledger/internal/ingest/domain"
	"carbonledger/internal/ingest/infrastructure/memory"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type fakeDocumentStore struct {
	docs map[string]*documents.Document
}

func (s *fakeDocumentStore) Get(ctx context.Context, id string) (*documents.Document, error) {
	_ = ctx
	return s.docs[id], nil
}

func (s *fakeDocumentStore) MarkProcessed(ctx context.Context, id, status string, recordCount int, errorMessage string, processedAt time.Time) error {
	_ = ctx
	if doc, ok := s.docs[id]; ok {
		doc.Status = status
		doc.RecordCount = recordCount
		doc.ErrorMessage = errorMessage
		doc.ProcessedAt = processedAt
	}
	return nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	table, err := factors.NewTable([]factors.EmissionFactor{
		{Category: "electricity", Unit: "kwh", Factor: 0.233, Source: "EEA", Year: 2023, Region: "EU"},
	}, "EEA")
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	normalizer, err := ingest.NewNormalizer(table)
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}
	store := &fakeDocumentStore{docs: map[string]*documents.Document{
		"doc-1": {ID: "doc-1", CompanyID: "cmp-1", Filename: "a.csv", FileType: "csv", Status: documents.StatusUploaded},
	}}
	service, err := ingestapp.NewService(normalizer, memory.NewRecordRepository(), store, fixedClock{at: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewHandler(service, nil, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func memberRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := auth.WithIdentity(req.Context(), "cmp-1", auth.RoleMember, "user-1")
	return req.WithContext(ctx)
}

func TestIngestHandler_PerRowOutcomes(t *testing.T) {
	handler := newTestHandler(t)

	body := `{"document_id":"doc-1","rows":[
		{"category":"electricity","usage":100,"unit":"kWh"},
		{"category":"electricity","usage":-1,"unit":"kwh"},
		{"category":"unknown_widget","usage":5,"unit":"pcs"}
	]}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, memberRequest(http.MethodPost, "/api/v1/ingest/rows", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var result ingestapp.BatchResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.Stored != 1 || result.Rejected != 1 || result.Unresolved != 1 {
		t.Fatalf("unexpected outcome counts: %+v", result)
	}
	if len(result.Outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(result.Outcomes))
	}
	if result.Outcomes[0].CO2e == nil || math.Abs(*result.Outcomes[0].CO2e-23.3) > 1e-6 {
		t.Fatalf("expected co2e 23.3 for first row, got %+v", result.Outcomes[0])
	}
	if result.Outcomes[2].CO2e != nil {
		t.Fatalf("unresolved row must carry null co2e, got %+v", result.Outcomes[2])
	}
}

func TestIngestHandler_UnknownDocument(t *testing.T) {
	handler := newTestHandler(t)

	body := `{"document_id":"doc-missing","rows":[{"category":"electricity","usage":1,"unit":"kwh"}]}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, memberRequest(http.MethodPost, "/api/v1/ingest/rows", body))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestIngestHandler_CompanyMismatch(t *testing.T) {
	handler := newTestHandler(t)

	body := `{"document_id":"doc-1","rows":[{"category":"electricity","usage":1,"unit":"kwh"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/rows", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), "cmp-other", auth.RoleMember, "user-2"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestIngestHandler_BadRequests(t *testing.T) {
	handler := newTestHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing document", `{"rows":[{"category":"electricity","usage":1,"unit":"kwh"}]}`},
		{"empty rows", `{"document_id":"doc-1","rows":[]}`},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, memberRequest(http.MethodPost, "/api/v1/ingest/rows", tc.body))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, resp.Code)
		}
	}
}

func TestIngestHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, memberRequest(http.MethodGet, "/api/v1/ingest/rows", ""))
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
}
