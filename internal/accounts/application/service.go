package application

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	accounts "carbonledger/internal/accounts/domain"
	"carbonledger/internal/observability/metrics"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Repository is the persistence surface the accounts flow needs. Promote
// must be transactional: the company insert and the submission stamp
// either both land or neither does.
type Repository interface {
	ListSubmissions(ctx context.Context, role, search string) ([]accounts.WaitlistSubmission, error)
	GetSubmission(ctx context.Context, id string) (*accounts.WaitlistSubmission, error)
	DeleteSubmission(ctx context.Context, id string) error
	FindCompanyByEmail(ctx context.Context, email string) (*accounts.Company, error)
	Promote(ctx context.Context, company *accounts.Company, submissionID string, promotedAt time.Time) error
}

// PromotionResult is returned to the admin after a successful promotion.
// The temporary password is surfaced once, for delivery to the user.
type PromotionResult struct {
	CompanyID    string `json:"company_id"`
	CompanyName  string `json:"company_name"`
	Email        string `json:"email"`
	TempPassword string `json:"temporary_password"`
}

// Service manages waitlist submissions and promotions.
type Service struct {
	repo  Repository
	clock Clock
}

// NewService constructs an accounts service.
func NewService(repo Repository, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("accounts service: nil repository")
	}
	if clock == nil {
		return nil, errors.New("accounts service: nil clock")
	}
	return &Service{repo: repo, clock: clock}, nil
}

// List returns waitlist submissions, optionally filtered by role and a
// name/company/email substring.
func (s *Service) List(ctx context.Context, role, search string) ([]accounts.WaitlistSubmission, error) {
	return s.repo.ListSubmissions(ctx, role, search)
}

// SubmissionDetail pairs a submission with its promotion state.
type SubmissionDetail struct {
	Submission accounts.WaitlistSubmission `json:"submission"`
	Promoted   bool                        `json:"already_promoted"`
	CompanyID  string                      `json:"company_id,omitempty"`
}

// Get returns one submission with its promotion state.
func (s *Service) Get(ctx context.Context, id string) (*SubmissionDetail, error) {
	submission, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, accounts.ErrSubmissionNotFound
	}
	detail := &SubmissionDetail{Submission: *submission}
	company, err := s.repo.FindCompanyByEmail(ctx, submission.Email)
	if err != nil {
		return nil, err
	}
	if company != nil {
		detail.Promoted = true
		detail.CompanyID = company.ID
	}
	return detail, nil
}

// Promote turns a waitlist submission into a company account with a
// generated temporary password. Re-promoting the same email fails with
// ErrAlreadyPromoted.
func (s *Service) Promote(ctx context.Context, id string) (*PromotionResult, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncPromotion(result)
	}()

	submission, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if submission == nil {
		result = metrics.ResultError
		return nil, accounts.ErrSubmissionNotFound
	}
	existing, err := s.repo.FindCompanyByEmail(ctx, submission.Email)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if existing != nil {
		result = metrics.ResultError
		return nil, accounts.ErrAlreadyPromoted
	}

	tempPassword, err := generateTempPassword(12)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	now := s.clock.Now().UTC()
	// TODO: store a bcrypt hash instead of the raw temporary password.
	company := &accounts.Company{
		ID:           accounts.NewCompanyID(),
		Name:         submission.Company,
		Email:        submission.Email,
		Sector:       "Unknown",
		Country:      "ES",
		PasswordHash: tempPassword,
		CreatedAt:    now,
	}
	if err := s.repo.Promote(ctx, company, submission.ID, now); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return &PromotionResult{
		CompanyID:    company.ID,
		CompanyName:  company.Name,
		Email:        company.Email,
		TempPassword: tempPassword,
	}, nil
}

// Delete rejects a waitlist submission.
func (s *Service) Delete(ctx context.Context, id string) error {
	submission, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	if submission == nil {
		return accounts.ErrSubmissionNotFound
	}
	return s.repo.DeleteSubmission(ctx, id)
}

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func generateTempPassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}
