package users

import (
	"context"
	"fmt"
	"time"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/validate"
)

// Repository is the persistence contract for users.
// Lookups return apperr.ErrNotFound; duplicate emails return apperr.ErrConflict.
type Repository interface {
	Create(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
}

// SessionRevoker drops every session of a user. Implemented by the auth
// session repository.
type SessionRevoker interface {
	DeleteForUser(ctx context.Context, userID string) error
}

// AccountEvents is notified after an account is deleted.
type AccountEvents interface {
	AccountDeleted(ctx context.Context, userID string)
}

type Service struct {
	repo     Repository
	sessions SessionRevoker
	events   AccountEvents
	clock    func() time.Time
}

func NewService(repo Repository, sessions SessionRevoker) *Service {
	return &Service{repo: repo, sessions: sessions, clock: time.Now}
}

// WithEvents attaches a best-effort listener for account lifecycle events.
func (s *Service) WithEvents(e AccountEvents) *Service {
	s.events = e
	return s
}

func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	if userID == "" {
		return User{}, apperr.ErrUnauthenticated
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (User, error) {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return User{}, err
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	in.apply(&u)
	u.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// DeleteAccount revokes every session first so outstanding tokens stop
// working even if the user delete fails halfway.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.ErrUnauthenticated
	}
	if s.sessions != nil {
		if err := s.sessions.DeleteForUser(ctx, userID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	if s.events != nil {
		s.events.AccountDeleted(ctx, userID)
	}
	return nil
}
