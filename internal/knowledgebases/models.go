package knowledgebases

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// KnowledgeBase is a content collection the voice agent grounds on.
// Content is passed through to the provider without inspection.
type KnowledgeBase struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Type        Type            `json:"type" db:"type"`
	Content     json.RawMessage `json:"content" db:"content"`
	Status      Status          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

type Type string

const (
	TypeText     Type = "text"
	TypeDocument Type = "document"
	TypeLink     Type = "link"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusActive || s == StatusArchived
}

type CreateKnowledgeBase struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Type        Type            `json:"type" validate:"omitempty,oneof=text document link"`
	Content     json.RawMessage `json:"content"`
	Status      Status          `json:"status" validate:"omitempty,oneof=draft active archived"`
}

// UpdateKnowledgeBase is a partial update; nil fields are left untouched.
type UpdateKnowledgeBase struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Type        *Type           `json:"type" validate:"omitempty,oneof=text document link"`
	Content     json.RawMessage `json:"content"`
	Status      *Status         `json:"status" validate:"omitempty,oneof=draft active archived"`
}

func (u *UpdateKnowledgeBase) normalize() {
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		u.Name = &n
	}
}

func (u UpdateKnowledgeBase) apply(kb *KnowledgeBase) {
	if u.Name != nil {
		kb.Name = *u.Name
	}
	if u.Description != nil {
		kb.Description = *u.Description
	}
	if u.Type != nil {
		kb.Type = *u.Type
	}
	if len(u.Content) > 0 {
		kb.Content = contentOrEmpty(u.Content)
	}
	if u.Status != nil {
		kb.Status = *u.Status
	}
}

func contentOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return json.RawMessage(`[]`)
	}
	return raw
}
