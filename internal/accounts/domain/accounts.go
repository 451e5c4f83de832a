package accounts

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrSubmissionNotFound is returned when a waitlist submission does not exist.
	ErrSubmissionNotFound = errors.New("accounts: submission not found")
	// ErrAlreadyPromoted is returned when the submission's email already has a company.
	ErrAlreadyPromoted = errors.New("accounts: already promoted")
)

// WaitlistSubmission is a landing-page signup awaiting promotion.
type WaitlistSubmission struct {
	ID         string
	Name       string
	Company    string
	Email      string
	Role       string
	CreatedAt  time.Time
	PromotedAt time.Time
}

// Promoted reports whether the submission was turned into a company.
func (s WaitlistSubmission) Promoted() bool {
	return !s.PromotedAt.IsZero()
}

// Company is a tenant account. Records, documents and reports hang off it.
type Company struct {
	ID           string
	Name         string
	Email        string
	Sector       string
	Country      string
	PasswordHash string
	CreatedAt    time.Time
}

// NewCompanyID generates a random company id.
func NewCompanyID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "cmp-" + hex.EncodeToString(buf)
}
