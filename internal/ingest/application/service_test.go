package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"carbonledger/internal/auth"
	documents "carbonledger/internal/documents/domain"
	"carbonledger/internal/factors"
	ingest "carbonledger/internal/ingest/domain"
	"carbonledger/internal/ingest/infrastructure/memory"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type fakeDocumentStore struct {
	docs      map[string]*documents.Document
	lastState string
	lastCount int
}

func newFakeDocumentStore(docs ...*documents.Document) *fakeDocumentStore {
	store := &fakeDocumentStore{docs: make(map[string]*documents.Document)}
	for _, doc := range docs {
		store.docs[doc.ID] = doc
	}
	return store
}

func (s *fakeDocumentStore) Get(ctx context.Context, id string) (*documents.Document, error) {
	_ = ctx
	return s.docs[id], nil
}

func (s *fakeDocumentStore) MarkProcessed(ctx context.Context, id, status string, recordCount int, errorMessage string, processedAt time.Time) error {
	_ = ctx
	_ = errorMessage
	_ = processedAt
	s.lastState = status
	s.lastCount = recordCount
	return nil
}

func newTestService(t *testing.T, store *fakeDocumentStore) (*Service, *memory.RecordRepository) {
	t.Helper()
	table, err := factors.NewTable([]factors.EmissionFactor{
		{Category: "electricity", Unit: "kwh", Factor: 0.233, Source: "EEA", Year: 2023, Region: "EU"},
		{Category: "diesel", Unit: "l", Factor: 2.68, Source: "DEFRA", Year: 2023, Region: "EU"},
	}, "EEA")
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	normalizer, err := ingest.NewNormalizer(table)
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}
	records := memory.NewRecordRepository()
	service, err := NewService(normalizer, records, store, fixedClock{at: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, records
}

func testDocument(companyID string) *documents.Document {
	return &documents.Document{
		ID:        "doc-test-1",
		CompanyID: companyID,
		Filename:  "invoices.csv",
		FileType:  "csv",
		Status:    documents.StatusUploaded,
	}
}

func TestProcessBatch_ContinuesPastBadRows(t *testing.T) {
	store := newFakeDocumentStore(testDocument("cmp-1"))
	service, records := newTestService(t, store)

	date := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	rows := []ingest.RawRow{
		{Category: "electricity", Usage: 100, Unit: "kwh", Date: &date},
		{Category: "electricity", Usage: -3, Unit: "kwh"},
		{Category: "diesel", Usage: 50, Unit: "liters", Date: &date},
		{Category: "electricity", Usage: 10, Unit: ""},
	}
	batch, err := service.ProcessBatch(context.Background(), "doc-test-1", ingest.CompanyContext{CompanyID: "cmp-1"}, rows)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if batch.Stored != 2 || batch.Rejected != 2 || batch.Unresolved != 0 {
		t.Fatalf("expected 2 stored / 2 rejected, got %+v", batch)
	}
	if len(batch.Outcomes) != 4 {
		t.Fatalf("expected outcome per row, got %d", len(batch.Outcomes))
	}
	if batch.Outcomes[1].Status != OutcomeRejected || batch.Outcomes[1].Error == "" {
		t.Fatalf("expected rejected outcome with error, got %+v", batch.Outcomes[1])
	}
	if records.Len() != 2 {
		t.Fatalf("expected 2 stored records, got %d", records.Len())
	}
	if store.lastState != documents.StatusCompleted || store.lastCount != 2 {
		t.Fatalf("expected completed/2, got %s/%d", store.lastState, store.lastCount)
	}
}

func TestProcessBatch_UnresolvedRowsAreKept(t *testing.T) {
	store := newFakeDocumentStore(testDocument("cmp-1"))
	service, records := newTestService(t, store)

	rows := []ingest.RawRow{
		{Category: "electricity", Usage: 100, Unit: "kwh"},
		{Category: "unknown_widget", Usage: 5, Unit: "pcs"},
	}
	batch, err := service.ProcessBatch(context.Background(), "doc-test-1", ingest.CompanyContext{CompanyID: "cmp-1"}, rows)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if batch.Stored != 1 || batch.Unresolved != 1 {
		t.Fatalf("expected 1 stored / 1 unresolved, got %+v", batch)
	}
	if records.Len() != 2 {
		t.Fatalf("unresolved record must still be stored, got %d records", records.Len())
	}
	stored, err := records.FindByDocument(context.Background(), "doc-test-1")
	if err != nil {
		t.Fatalf("find by document: %v", err)
	}
	unresolved := 0
	for _, record := range stored {
		if record.CO2e == nil {
			unresolved++
			if record.FactorSource != ingest.FactorSourceUnresolved {
				t.Fatalf("expected unresolved factor source, got %q", record.FactorSource)
			}
		}
	}
	if unresolved != 1 {
		t.Fatalf("expected exactly one null-co2e record, got %d", unresolved)
	}
}

func TestProcessBatch_CompanyMismatch(t *testing.T) {
	store := newFakeDocumentStore(testDocument("cmp-other"))
	service, _ := newTestService(t, store)

	rows := []ingest.RawRow{{Category: "electricity", Usage: 1, Unit: "kwh"}}
	_, err := service.ProcessBatch(context.Background(), "doc-test-1", ingest.CompanyContext{CompanyID: "cmp-1"}, rows)
	if !errors.Is(err, auth.ErrCompanyMismatch) {
		t.Fatalf("expected ErrCompanyMismatch, got %v", err)
	}
}

func TestProcessBatch_UnknownDocument(t *testing.T) {
	store := newFakeDocumentStore()
	service, _ := newTestService(t, store)

	rows := []ingest.RawRow{{Category: "electricity", Usage: 1, Unit: "kwh"}}
	_, err := service.ProcessBatch(context.Background(), "doc-missing", ingest.CompanyContext{CompanyID: "cmp-1"}, rows)
	if !errors.Is(err, documents.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestProcessBatch_EmptyBatch(t *testing.T) {
	store := newFakeDocumentStore(testDocument("cmp-1"))
	service, _ := newTestService(t, store)

	if _, err := service.ProcessBatch(context.Background(), "doc-test-1", ingest.CompanyContext{CompanyID: "cmp-1"}, nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}
