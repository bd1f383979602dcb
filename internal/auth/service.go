package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/audit"
	"voice-dashboard/internal/users"
	"voice-dashboard/internal/validate"

	"github.com/google/uuid"
)

// UserStore is the slice of the users repository auth needs.
type UserStore interface {
	Create(ctx context.Context, u users.User) error
	FindByEmail(ctx context.Context, email string) (users.User, error)
}

// Recorder receives best-effort audit events.
type Recorder interface {
	Record(ctx context.Context, typ audit.EventType, userID, message string)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is returned by Register and Login.
type Result struct {
	User      users.Public `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

var errBadCredentials = apperr.New(apperr.ErrUnauthenticated, "invalid email or password")

type Service struct {
	users    UserStore
	sessions SessionRepository
	tokens   *Manager
	audit    Recorder

	cost  int
	clock func() time.Time
}

func NewService(u UserStore, sessions SessionRepository, tokens *Manager) *Service {
	return &Service{
		users:    u,
		sessions: sessions,
		tokens:   tokens,
		cost:     DefaultBcryptCost,
		clock:    time.Now,
	}
}

func (s *Service) WithAudit(r Recorder) *Service {
	s.audit = r
	return s
}

// WithCost overrides the bcrypt cost used for new password hashes.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Result, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = users.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return Result{}, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return Result{}, apperr.New(apperr.ErrConflict, "email already registered")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Result{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock().UTC()
	u := users.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Create still reports ErrConflict if a concurrent registration won.
	if err := s.users.Create(ctx, u); err != nil {
		return Result{}, err
	}

	res, err := s.startSession(ctx, u, now)
	if err != nil {
		return Result{}, err
	}
	s.record(ctx, audit.EventUserRegistered, u.ID, "")
	return res, nil
}

// Login fails with the same error whether the email is unknown or the
// password is wrong.
func (s *Service) Login(ctx context.Context, in LoginInput) (Result, error) {
	in.Email = users.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return Result{}, err
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		burnCompare(in.Password, s.cost)
		s.record(ctx, audit.EventLoginFailed, "", "unknown email")
		return Result{}, errBadCredentials
	}
	if err != nil {
		return Result{}, fmt.Errorf("lookup user: %w", err)
	}
	if !checkPassword(u.PasswordHash, in.Password) {
		s.record(ctx, audit.EventLoginFailed, u.ID, "wrong password")
		return Result{}, errBadCredentials
	}

	res, err := s.startSession(ctx, u, s.clock().UTC())
	if err != nil {
		return Result{}, err
	}
	s.record(ctx, audit.EventLogin, u.ID, "")
	return res, nil
}

// Logout deletes the session for token. Unknown or empty tokens are not an
// error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	hash := HashToken(token)
	var userID string
	if sess, err := s.sessions.FindByTokenHash(ctx, hash); err == nil {
		userID = sess.UserID
	}
	if err := s.sessions.DeleteByTokenHash(ctx, hash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if userID != "" {
		s.record(ctx, audit.EventLogout, userID, "")
	}
	return nil
}

// Authenticate requires both a valid signature and a live session row.
// Missing token is ErrUnauthenticated; everything else is ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperr.New(apperr.ErrUnauthenticated, "access token required")
	}
	now := s.clock()

	claims, err := s.tokens.Verify(token, now)
	if err != nil {
		return Identity{}, apperr.New(apperr.ErrInvalidToken, "invalid or expired token")
	}

	sess, err := s.sessions.FindByTokenHash(ctx, HashToken(token))
	if errors.Is(err, apperr.ErrNotFound) {
		return Identity{}, apperr.New(apperr.ErrInvalidToken, "invalid or expired token")
	}
	if err != nil {
		return Identity{}, fmt.Errorf("lookup session: %w", err)
	}
	if sess.UserID != claims.UserID || !sess.Valid(now) {
		return Identity{}, apperr.New(apperr.ErrInvalidToken, "invalid or expired token")
	}

	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

func (s *Service) startSession(ctx context.Context, u users.User, now time.Time) (Result, error) {
	token, exp, err := s.tokens.Issue(now, u.ID, u.Email)
	if err != nil {
		return Result{}, fmt.Errorf("issue token: %w", err)
	}
	if err := s.sessions.Create(ctx, Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: HashToken(token),
		ExpiresAt: exp,
		CreatedAt: now,
	}); err != nil {
		return Result{}, fmt.Errorf("create session: %w", err)
	}
	return Result{User: u.Public(), Token: token, ExpiresAt: exp}, nil
}

func (s *Service) record(ctx context.Context, typ audit.EventType, userID, msg string) {
	if s.audit != nil {
		s.audit.Record(ctx, typ, userID, msg)
	}
}
