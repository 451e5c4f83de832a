package application

import (
	"context"
	"errors"
	"testing"
	"time"

	accounts "carbonledger/internal/accounts/domain"
	"carbonledger/internal/accounts/infrastructure/memory"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func newAccountsService(t *testing.T) (*Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	service, err := NewService(repo, fixedClock{at: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, repo
}

func seedSubmission(repo *memory.Repository, id, email string) {
	repo.AddSubmission(accounts.WaitlistSubmission{
		ID:        id,
		Name:      "Ada",
		Company:   "Acme Cement",
		Email:     email,
		Role:      "sme",
		CreatedAt: time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC),
	})
}

func TestPromote_CreatesCompanyAndStampsSubmission(t *testing.T) {
	service, repo := newAccountsService(t)
	seedSubmission(repo, "wl-1", "ada@acme.example")

	result, err := service.Promote(context.Background(), "wl-1")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if result.CompanyID == "" || result.CompanyName != "Acme Cement" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.TempPassword) != 12 {
		t.Fatalf("expected 12-char temp password, got %q", result.TempPassword)
	}

	company, err := repo.FindCompanyByEmail(context.Background(), "ada@acme.example")
	if err != nil {
		t.Fatalf("find company: %v", err)
	}
	if company == nil || company.ID != result.CompanyID {
		t.Fatalf("company not persisted: %+v", company)
	}

	detail, err := service.Get(context.Background(), "wl-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !detail.Promoted || detail.CompanyID != result.CompanyID {
		t.Fatalf("submission not marked promoted: %+v", detail)
	}
	if !detail.Submission.Promoted() {
		t.Fatal("expected promoted_at stamp")
	}
}

func TestPromote_RejectsSecondPromotion(t *testing.T) {
	service, repo := newAccountsService(t)
	seedSubmission(repo, "wl-1", "ada@acme.example")

	if _, err := service.Promote(context.Background(), "wl-1"); err != nil {
		t.Fatalf("first promote: %v", err)
	}
	_, err := service.Promote(context.Background(), "wl-1")
	if !errors.Is(err, accounts.ErrAlreadyPromoted) {
		t.Fatalf("expected ErrAlreadyPromoted, got %v", err)
	}
}

func TestPromote_UnknownSubmission(t *testing.T) {
	service, _ := newAccountsService(t)
	_, err := service.Promote(context.Background(), "wl-missing")
	if !errors.Is(err, accounts.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestList_Filters(t *testing.T) {
	service, repo := newAccountsService(t)
	repo.AddSubmission(accounts.WaitlistSubmission{
		ID: "wl-1", Name: "Ada", Company: "Acme Cement", Email: "ada@acme.example", Role: "sme",
		CreatedAt: time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC),
	})
	repo.AddSubmission(accounts.WaitlistSubmission{
		ID: "wl-2", Name: "Grace", Company: "Hopper Logistics", Email: "grace@hopper.example", Role: "consultant",
		CreatedAt: time.Date(2025, 1, 21, 9, 0, 0, 0, time.UTC),
	})

	all, err := service.List(context.Background(), "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(all))
	}
	if all[0].ID != "wl-2" {
		t.Fatalf("expected newest first, got %s", all[0].ID)
	}

	byRole, err := service.List(context.Background(), "sme", "")
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if len(byRole) != 1 || byRole[0].ID != "wl-1" {
		t.Fatalf("unexpected role filter result: %+v", byRole)
	}

	bySearch, err := service.List(context.Background(), "", "hopper")
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}
	if len(bySearch) != 1 || bySearch[0].ID != "wl-2" {
		t.Fatalf("unexpected search result: %+v", bySearch)
	}
}

func TestDelete(t *testing.T) {
	service, repo := newAccountsService(t)
	seedSubmission(repo, "wl-1", "ada@acme.example")

	if err := service.Delete(context.Background(), "wl-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := service.Delete(context.Background(), "wl-1"); !errors.Is(err, accounts.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound after delete, got %v", err)
	}
}
