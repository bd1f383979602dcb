package pathways

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/validate"

	"github.com/google/uuid"
)

// Repository is the persistence contract for pathways. Every method is
// scoped by user id; missing and not-owned rows both yield
// apperr.ErrNotFound.
type Repository interface {
	List(ctx context.Context, userID string, status Status) ([]Pathway, error)
	Get(ctx context.Context, userID, id string) (Pathway, error)
	Create(ctx context.Context, p Pathway) error
	Update(ctx context.Context, p Pathway) error
	Delete(ctx context.Context, userID, id string) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// List returns the user's pathways, most recently updated first.
func (s *Service) List(ctx context.Context, userID string, status Status) ([]Pathway, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Invalid("status", "must be one of draft active archived")
	}
	out, err := s.repo.List(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list pathways: %w", err)
	}
	if out == nil {
		out = []Pathway{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Pathway, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID string, in CreatePathway) (Pathway, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return Pathway{}, err
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}

	now := s.clock().UTC()
	p := Pathway{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Nodes:       nodesOrEmpty(in.Nodes),
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Pathway{}, fmt.Errorf("create pathway: %w", err)
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdatePathway) (Pathway, error) {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return Pathway{}, err
	}
	p, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Pathway{}, err
	}
	in.apply(&p)
	p.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pathway{}, err
	}
	return p, nil
}

// Delete is not idempotent: a second delete returns apperr.ErrNotFound.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
