package documents

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var (
	// ErrDocumentNotFound is returned when a document does not exist.
	ErrDocumentNotFound = errors.New("documents: not found")
	// ErrInvalidDocument is returned for unusable document metadata.
	ErrInvalidDocument = errors.New("documents: invalid document")
)

// Document represents an uploaded source file whose parsed rows become records.
type Document struct {
	ID            string
	CompanyID     string
	Filename      string
	FileType      string
	Status        string
	RecordCount   int
	ErrorMessage  string
	UploadedAt    time.Time
	ProcessedAt   time.Time
}

// NewDocument creates a document in the uploaded state.
func NewDocument(companyID, filename, fileType string, now time.Time) (*Document, error) {
	if companyID == "" {
		return nil, errors.New("documents: empty company id")
	}
	if filename == "" {
		return nil, errors.New("documents: empty filename")
	}
	return &Document{
		ID:         NewID(),
		CompanyID:  companyID,
		Filename:   filename,
		FileType:   fileType,
		Status:     StatusUploaded,
		UploadedAt: now.UTC(),
	}, nil
}

// NewID generates a random document id.
func NewID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "doc-" + hex.EncodeToString(buf)
}
