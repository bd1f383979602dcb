package knowledgebases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/validate"

	"github.com/google/uuid"
)

// Repository is the persistence contract for knowledge bases, scoped by
// user id like every other resource.
type Repository interface {
	List(ctx context.Context, userID string, status Status) ([]KnowledgeBase, error)
	Get(ctx context.Context, userID, id string) (KnowledgeBase, error)
	Create(ctx context.Context, kb KnowledgeBase) error
	Update(ctx context.Context, kb KnowledgeBase) error
	Delete(ctx context.Context, userID, id string) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) List(ctx context.Context, userID string, status Status) ([]KnowledgeBase, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Invalid("status", "must be one of draft active archived")
	}
	out, err := s.repo.List(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list knowledge bases: %w", err)
	}
	if out == nil {
		out = []KnowledgeBase{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (KnowledgeBase, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Create(ctx context.Context, userID string, in CreateKnowledgeBase) (KnowledgeBase, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return KnowledgeBase{}, err
	}
	if in.Type == "" {
		in.Type = TypeText
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}

	now := s.clock().UTC()
	kb := KnowledgeBase{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Content:     contentOrEmpty(in.Content),
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, kb); err != nil {
		return KnowledgeBase{}, fmt.Errorf("create knowledge base: %w", err)
	}
	return kb, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateKnowledgeBase) (KnowledgeBase, error) {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		return KnowledgeBase{}, err
	}
	kb, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return KnowledgeBase{}, err
	}
	in.apply(&kb)
	kb.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, kb); err != nil {
		return KnowledgeBase{}, err
	}
	return kb, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
