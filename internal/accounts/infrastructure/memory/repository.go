package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	accounts "carbonledger/internal/accounts/domain"
)

// Repository is an in-memory accounts store for tests.
type Repository struct {
	mu          sync.RWMutex
	submissions map[string]accounts.WaitlistSubmission
	companies   map[string]accounts.Company
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{
		submissions: make(map[string]accounts.WaitlistSubmission),
		companies:   make(map[string]accounts.Company),
	}
}

// AddSubmission seeds a submission.
func (r *Repository) AddSubmission(submission accounts.WaitlistSubmission) {
	r.mu.Lock()
	r.submissions[submission.ID] = submission
	r.mu.Unlock()
}

// ListSubmissions returns submissions newest first, optionally filtered.
func (r *Repository) ListSubmissions(ctx context.Context, role, search string) ([]accounts.WaitlistSubmission, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []accounts.WaitlistSubmission
	needle := strings.ToLower(search)
	for _, submission := range r.submissions {
		if role != "" && submission.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(submission.Name), needle) &&
			!strings.Contains(strings.ToLower(submission.Company), needle) &&
			!strings.Contains(strings.ToLower(submission.Email), needle) {
			continue
		}
		result = append(result, submission)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// GetSubmission fetches a submission by id.
func (r *Repository) GetSubmission(ctx context.Context, id string) (*accounts.WaitlistSubmission, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	if submission, ok := r.submissions[id]; ok {
		copied := submission
		return &copied, nil
	}
	return nil, nil
}

// DeleteSubmission removes a submission.
func (r *Repository) DeleteSubmission(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	delete(r.submissions, id)
	r.mu.Unlock()
	return nil
}

// FindCompanyByEmail fetches a company by email.
func (r *Repository) FindCompanyByEmail(ctx context.Context, email string) (*accounts.Company, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, company := range r.companies {
		if company.Email == email {
			copied := company
			return &copied, nil
		}
	}
	return nil, nil
}

// Promote inserts the company and stamps the submission atomically.
func (r *Repository) Promote(ctx context.Context, company *accounts.Company, submissionID string, promotedAt time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.companies {
		if existing.Email == company.Email {
			return accounts.ErrAlreadyPromoted
		}
	}
	r.companies[company.ID] = *company
	if submission, ok := r.submissions[submissionID]; ok {
		submission.PromotedAt = promotedAt
		r.submissions[submissionID] = submission
	}
	return nil
}
