package calls

import (
	"encoding/json"
	"strings"
	"time"
)

// Call is a phone call placed on behalf of one user.
//
// Ownership invariant: every read and write is filtered by UserID.
// Status only moves forward; completed and failed are absorbing.
type Call struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"userId" db:"user_id"`

	PhoneNumber string `json:"phoneNumber" db:"phone_number"`
	PathwayID   string `json:"pathwayId" db:"pathway_id"`
	PathwayName string `json:"pathwayName" db:"pathway_name"`

	// ProviderCallID is set once the provider accepts the call.
	ProviderCallID string `json:"providerCallId" db:"provider_call_id"`

	Status Status `json:"status" db:"status"`

	// Duration is in seconds.
	Duration int     `json:"duration" db:"duration"`
	Cost     float64 `json:"cost" db:"cost"`

	Metadata json.RawMessage `json:"metadata" db:"metadata"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	default:
		return 2
	}
}

// StatusFromProvider maps the provider's status vocabulary onto Status.
// ok is false for values that carry no state change (e.g. "queued").
func StatusFromProvider(raw string, completed bool) (s Status, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "started", "in-progress", "in_progress", "ringing", "answered", "allocated":
		return StatusInProgress, true
	case "completed", "complete", "ended":
		return StatusCompleted, true
	case "failed", "error", "no-answer", "no_answer", "busy", "canceled", "cancelled":
		return StatusFailed, true
	}
	if completed {
		return StatusCompleted, true
	}
	return "", false
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Page struct {
	Calls      []Call     `json:"calls"`
	Pagination Pagination `json:"pagination"`
}

// CreateCall is the call submission payload. Only PhoneNumber is required.
type CreateCall struct {
	PhoneNumber   string `json:"phoneNumber" validate:"required,min=10,max=32"`
	PathwayID     string `json:"pathwayId" validate:"omitempty,max=200"`
	PathwayName   string `json:"pathwayName" validate:"omitempty,max=200"`
	Instructions  string `json:"instructions" validate:"omitempty,max=10000"`
	VoiceID       string `json:"voiceId" validate:"omitempty,max=100"`
	FirstSentence string `json:"firstSentence" validate:"omitempty,max=1000"`
	Language      string `json:"language" validate:"omitempty,max=16"`
	MaxDuration   int    `json:"maxDuration" validate:"omitempty,min=1,max=240"`
	Record        *bool  `json:"record"`
}

// Totals is the raw per-user aggregate behind the stats summary.
type Totals struct {
	Total      int
	Completed  int
	Failed     int
	InProgress int

	// CompletedDuration sums duration over completed calls only.
	CompletedDuration int
	TotalCost         float64
}

func mergeMetadata(raw json.RawMessage, key string, value any) json.RawMessage {
	m := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &m)
	}
	m[key] = value
	b, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return b
}
