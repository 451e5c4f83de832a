package application

import (
	"context"
	"errors"
	"strings"
	"time"

	documents "carbonledger/internal/documents/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Repository is the persistence surface the document flow needs.
type Repository interface {
	Create(ctx context.Context, doc *documents.Document) error
	Get(ctx context.Context, id string) (*documents.Document, error)
	ListByCompany(ctx context.Context, companyID string) ([]documents.Document, error)
}

var allowedFileTypes = map[string]bool{
	"csv":  true,
	"xlsx": true,
	"xls":  true,
	"pdf":  true,
}

// Service registers and lists uploaded documents.
type Service struct {
	repo  Repository
	clock Clock
}

// NewService constructs a document service.
func NewService(repo Repository, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("documents service: nil repository")
	}
	if clock == nil {
		return nil, errors.New("documents service: nil clock")
	}
	return &Service{repo: repo, clock: clock}, nil
}

// Register records an uploaded file and returns it in the uploaded state.
// The file type is taken from the filename extension when not provided.
func (s *Service) Register(ctx context.Context, companyID, filename, fileType string) (*documents.Document, error) {
	if fileType == "" {
		if idx := strings.LastIndex(filename, "."); idx >= 0 {
			fileType = strings.ToLower(filename[idx+1:])
		}
	}
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	if !allowedFileTypes[fileType] {
		return nil, documents.ErrInvalidDocument
	}
	doc, err := documents.NewDocument(companyID, filename, fileType, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get fetches a document by id.
func (s *Service) Get(ctx context.Context, id string) (*documents.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, documents.ErrDocumentNotFound
	}
	return doc, nil
}

// List returns a company's documents, newest first.
func (s *Service) List(ctx context.Context, companyID string) ([]documents.Document, error) {
	if companyID == "" {
		return nil, errors.New("documents service: empty company id")
	}
	return s.repo.ListByCompany(ctx, companyID)
}
