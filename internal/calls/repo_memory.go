package calls

import (
	"context"
	"sort"
	"sync"

	"voice-dashboard/internal/apperr"
)

// MemoryRepo is an in-memory call store for tests. It enforces the same
// ownership filtering as the Postgres repository.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]Call
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{calls: map[string]Call{}} }

func (r *MemoryRepo) List(ctx context.Context, userID string, f ListFilter) ([]Call, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]Call, 0)
	for _, c := range r.calls {
		if c.UserID != userID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if f.Offset >= total {
		return []Call{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return matched[f.Offset:end], total, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok || c.UserID != userID {
		return Call{}, apperr.ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) Create(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ID]; ok {
		return apperr.ErrConflict
	}
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.calls[c.ID]
	if !ok || cur.UserID != c.UserID {
		return apperr.ErrNotFound
	}
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) Advance(ctx context.Context, providerCallID string, fn func(Call) (Call, bool)) (Call, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.calls {
		if providerCallID == "" || c.ProviderCallID != providerCallID {
			continue
		}
		next, changed := fn(c)
		if changed {
			r.calls[id] = next
		}
		return next, changed, nil
	}
	return Call{}, false, apperr.ErrNotFound
}

func (r *MemoryRepo) Totals(ctx context.Context, userID string) (Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t Totals
	for _, c := range r.calls {
		if c.UserID != userID {
			continue
		}
		t.Total++
		t.TotalCost += c.Cost
		switch c.Status {
		case StatusCompleted:
			t.Completed++
			t.CompletedDuration += c.Duration
		case StatusFailed:
			t.Failed++
		case StatusInProgress:
			t.InProgress++
		}
	}
	return t, nil
}

// DeleteForUser stands in for the ON DELETE CASCADE in tests.
func (r *MemoryRepo) DeleteForUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.calls {
		if c.UserID == userID {
			delete(r.calls, id)
		}
	}
}
