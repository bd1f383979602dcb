package knowledgebases

import (
	"context"
	"sort"
	"sync"

	"voice-dashboard/internal/apperr"
)

// MemoryRepo is an in-memory knowledge base store for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]KnowledgeBase
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{items: map[string]KnowledgeBase{}} }

func (r *MemoryRepo) List(ctx context.Context, userID string, status Status) ([]KnowledgeBase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]KnowledgeBase, 0)
	for _, kb := range r.items {
		if kb.UserID != userID || (status != "" && kb.Status != status) {
			continue
		}
		out = append(out, kb)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (KnowledgeBase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kb, ok := r.items[id]
	if !ok || kb.UserID != userID {
		return KnowledgeBase{}, apperr.ErrNotFound
	}
	return kb, nil
}

func (r *MemoryRepo) Create(ctx context.Context, kb KnowledgeBase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[kb.ID] = kb
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, kb KnowledgeBase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[kb.ID]
	if !ok || cur.UserID != kb.UserID {
		return apperr.ErrNotFound
	}
	r.items[kb.ID] = kb
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kb, ok := r.items[id]
	if !ok || kb.UserID != userID {
		return apperr.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteForUser stands in for the ON DELETE CASCADE in tests.
func (r *MemoryRepo) DeleteForUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, kb := range r.items {
		if kb.UserID == userID {
			delete(r.items, id)
		}
	}
}
