package application

import (
	"context"
	"errors"
	"testing"
	"time"

	documents "carbonledger/internal/documents/domain"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

type memoryRepository struct {
	docs map[string]documents.Document
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{docs: make(map[string]documents.Document)}
}

func (r *memoryRepository) Create(ctx context.Context, doc *documents.Document) error {
	_ = ctx
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id string) (*documents.Document, error) {
	_ = ctx
	if doc, ok := r.docs[id]; ok {
		copied := doc
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryRepository) ListByCompany(ctx context.Context, companyID string) ([]documents.Document, error) {
	_ = ctx
	var result []documents.Document
	for _, doc := range r.docs {
		if doc.CompanyID == companyID {
			result = append(result, doc)
		}
	}
	return result, nil
}

func newDocumentService(t *testing.T) (*Service, *memoryRepository) {
	t.Helper()
	repo := newMemoryRepository()
	service, err := NewService(repo, fixedClock{at: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, repo
}

func TestRegister_InfersFileTypeFromExtension(t *testing.T) {
	service, _ := newDocumentService(t)

	doc, err := service.Register(context.Background(), "cmp-1", "invoices_Q1.CSV", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if doc.FileType != "csv" {
		t.Fatalf("expected inferred csv, got %q", doc.FileType)
	}
	if doc.Status != documents.StatusUploaded {
		t.Fatalf("expected uploaded status, got %q", doc.Status)
	}
	if doc.UploadedAt != time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) {
		t.Fatalf("expected clock time, got %v", doc.UploadedAt)
	}
}

func TestRegister_RejectsUnsupportedType(t *testing.T) {
	service, _ := newDocumentService(t)

	_, err := service.Register(context.Background(), "cmp-1", "notes.txt", "")
	if !errors.Is(err, documents.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	service, _ := newDocumentService(t)

	_, err := service.Get(context.Background(), "doc-missing")
	if !errors.Is(err, documents.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestList_ScopedToCompany(t *testing.T) {
	service, _ := newDocumentService(t)

	if _, err := service.Register(context.Background(), "cmp-1", "a.csv", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(context.Background(), "cmp-2", "b.pdf", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	list, err := service.List(context.Background(), "cmp-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Filename != "a.csv" {
		t.Fatalf("expected only cmp-1 documents, got %+v", list)
	}
}
