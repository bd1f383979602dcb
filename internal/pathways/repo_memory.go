package pathways

import (
	"context"
	"sort"
	"sync"

	"voice-dashboard/internal/apperr"
)

// MemoryRepo is an in-memory pathway store for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	items map[string]Pathway
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{items: map[string]Pathway{}} }

func (r *MemoryRepo) List(ctx context.Context, userID string, status Status) ([]Pathway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Pathway, 0)
	for _, p := range r.items {
		if p.UserID != userID || (status != "" && p.Status != status) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Pathway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.UserID != userID {
		return Pathway{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) Create(ctx context.Context, p Pathway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, p Pathway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[p.ID]
	if !ok || cur.UserID != p.UserID {
		return apperr.ErrNotFound
	}
	r.items[p.ID] = p
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok || p.UserID != userID {
		return apperr.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// DeleteForUser stands in for the ON DELETE CASCADE in tests.
func (r *MemoryRepo) DeleteForUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.items {
		if p.UserID == userID {
			delete(r.items, id)
		}
	}
}
