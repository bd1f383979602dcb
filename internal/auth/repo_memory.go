package auth

import (
	"context"
	"sync"
	"time"

	"voice-dashboard/internal/apperr"
)

// MemorySessionRepo is an in-memory session store for tests.
type MemorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]Session // key: token hash
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: map[string]Session{}}
}

func (r *MemorySessionRepo) Create(ctx context.Context, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.TokenHash]; ok {
		return apperr.ErrConflict
	}
	r.sessions[s.TokenHash] = s
	return nil
}

func (r *MemorySessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[tokenHash]
	if !ok {
		return Session{}, apperr.ErrNotFound
	}
	return s, nil
}

func (r *MemorySessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

func (r *MemorySessionRepo) DeleteForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, k)
		}
	}
	return nil
}

func (r *MemorySessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.sessions {
		if !s.Valid(now) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored rows, expired ones included.
func (r *MemorySessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
