package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"voice-dashboard/internal/apperr"
)

type revokerStub struct{ revoked []string }

func (r *revokerStub) DeleteForUser(ctx context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

func strp(s string) *string { return &s }

func seed(t *testing.T, repo *MemoryRepo) User {
	t.Helper()
	u := User{ID: "u1", Name: "Ana", Email: "Ana@Example.com ", CreatedAt: time.Unix(1700000000, 0).UTC()}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return u
}

func TestUpdateProfile_AppliesPartialChanges(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo)
	svc := NewService(repo, nil)
	svc.clock = func() time.Time { return time.Unix(1700000100, 0) }

	enabled := true
	got, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{
		Company:        strp("Acme"),
		WebhookURL:     strp("https://hooks.example.com/calls"),
		WebhookEnabled: &enabled,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Ana" || got.Company != "Acme" || !got.WebhookEnabled {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", got.Email)
	}
	if !got.UpdatedAt.Equal(time.Unix(1700000100, 0)) {
		t.Fatalf("expected updated_at from clock, got %v", got.UpdatedAt)
	}
}

func TestUpdateProfile_ClearsWebhookWithEmptyString(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo)
	svc := NewService(repo, nil)

	if _, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{WebhookURL: strp("https://a.example")}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{WebhookURL: strp("")})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got.WebhookURL != "" {
		t.Fatalf("expected cleared webhook url")
	}
}

func TestUpdateProfile_ReportsEveryInvalidField(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo)
	svc := NewService(repo, nil)

	_, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{Name: strp("A"), WebhookURL: strp("not a url")})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d := apperr.Details(err); len(d) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", d)
	}
}

func TestUpdateProfile_ValidatesTrimmedName(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo)
	svc := NewService(repo, nil)

	_, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{Name: strp("  a ")})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for a one-letter name, got %v", err)
	}

	got, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{Name: strp("  Bia  ")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Bia" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
}

func TestDeleteAccount_RevokesSessionsThenDeletes(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo)
	rev := &revokerStub{}
	svc := NewService(repo, rev)

	if err := svc.DeleteAccount(context.Background(), "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(rev.revoked) != 1 || rev.revoked[0] != "u1" {
		t.Fatalf("expected sessions revoked, got %v", rev.revoked)
	}
	if _, err := svc.Profile(context.Background(), "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.DeleteAccount(context.Background(), "u1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestMemoryRepo_RejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryRepo()
	seed(t, repo)
	err := repo.Create(context.Background(), User{ID: "u2", Email: "ana@example.com"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
