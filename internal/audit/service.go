package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"voice-dashboard/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only; there is no Update or Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records account activity (registration, logins, logouts,
// account deletion). Records are internal and never served to users.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = ClientIPFromContext(ctx)
	}
	return s.repo.Append(ctx, e)
}

// Record is Append for callers that must not fail on audit errors; the
// failure is logged and dropped.
func (s *Service) Record(ctx context.Context, typ EventType, userID, message string) {
	if s == nil {
		return
	}
	if err := s.Append(ctx, Event{Type: typ, UserID: userID, Message: message}); err != nil {
		logger.From(ctx).Warn("audit append failed", slog.String("type", string(typ)), slog.Any("err", err))
	}
}

// AccountDeleted satisfies users.AccountEvents.
func (s *Service) AccountDeleted(ctx context.Context, userID string) {
	s.Record(ctx, EventAccountDeleted, userID, "account deleted")
}
