package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted, not even when the user is.
// - user_id and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	Type EventType `json:"type" db:"type"`

	// UserID is empty for failed logins against unknown emails.
	UserID string `json:"userId,omitempty" db:"user_id"`

	// IPAddress is the client IP resolved by the HTTP layer.
	IPAddress string `json:"ipAddress,omitempty" db:"ip_address"`

	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventLogin          EventType = "login"
	EventLoginFailed    EventType = "login_failed"
	EventLogout         EventType = "logout"
	EventAccountDeleted EventType = "account_deleted"
)
