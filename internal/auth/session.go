package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Session is one issued token. Only the SHA-256 of the token is stored.
//
// Lifecycle: created -> valid -> {logged_out (row deleted) | expired (row
// kept, ignored by every read path until swept)}.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Valid reports whether the session may authenticate a request at now.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// SessionRepository persists sessions. FindByTokenHash returns
// apperr.ErrNotFound when no row matches; deletes are idempotent.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
