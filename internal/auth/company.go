package auth

import (
	"context"
	"database/sql"
	"errors"

	documentsrepo "carbonledger/internal/documents/infrastructure/postgres"
)

var (
	// ErrCompanyMismatch indicates resource belongs to a different company.
	ErrCompanyMismatch = errors.New("company mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// DocumentCompanyChecker validates document company ownership.
type DocumentCompanyChecker interface {
	EnsureDocumentCompany(ctx context.Context, companyID, documentID string) error
}

// DocumentChecker checks document ownership using the documents store.
type DocumentChecker struct {
	repo *documentsrepo.DocumentRepository
}

// NewDocumentChecker constructs a DocumentChecker.
func NewDocumentChecker(db *sql.DB) *DocumentChecker {
	if db == nil {
		return nil
	}
	return &DocumentChecker{repo: documentsrepo.NewDocumentRepository(db)}
}

// EnsureDocumentCompany verifies a document belongs to the company.
func (c *DocumentChecker) EnsureDocumentCompany(ctx context.Context, companyID, documentID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if companyID == "" || documentID == "" {
		return nil
	}
	doc, err := c.repo.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	if doc.CompanyID != companyID {
		return ErrCompanyMismatch
	}
	return nil
}
