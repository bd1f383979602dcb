package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if err := svc.Append(context.Background(), Event{UserID: "u"}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestService_FillsIDTimestampAndIP(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }

	ctx := WithClientIP(context.Background(), "1.2.3.4")
	if err := svc.Append(ctx, Event{Type: EventLogin, UserID: "u1"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at, got %+v", evs[0])
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
}

func TestService_RecordSwallowsRepositoryErrors(t *testing.T) {
	repo := NewMemoryRepo()
	repo.Err = errors.New("db down")
	svc := NewService(repo)

	svc.Record(context.Background(), EventLogout, "u1", "")
	svc.AccountDeleted(context.Background(), "u1")

	var nilSvc *Service
	nilSvc.Record(context.Background(), EventLogin, "u1", "")
}
