package users

import (
	"context"
	"sync"

	"voice-dashboard/internal/apperr"
)

// MemoryRepo is an in-memory user store for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	users map[string]User

	// OnDelete runs after a user is removed, standing in for FK cascades.
	OnDelete func(userID string)
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{users: map[string]User{}} }

func (r *MemoryRepo) Create(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = NormalizeEmail(u.Email)
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperr.New(apperr.ErrConflict, "email already registered")
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, apperr.ErrNotFound
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	cur.Name = u.Name
	cur.Company = u.Company
	cur.ProviderAPIKey = u.ProviderAPIKey
	cur.WebhookURL = u.WebhookURL
	cur.WebhookEnabled = u.WebhookEnabled
	cur.UpdatedAt = u.UpdatedAt
	r.users[u.ID] = cur
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.users[id]; !ok {
		r.mu.Unlock()
		return apperr.ErrNotFound
	}
	delete(r.users, id)
	hook := r.OnDelete
	r.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	return nil
}
