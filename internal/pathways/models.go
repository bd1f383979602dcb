package pathways

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Pathway is a named conversational flow. Nodes is an opaque graph owned
// by the voice provider and stored as-is.
type Pathway struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Nodes       json.RawMessage `json:"nodes" db:"nodes"`
	Status      Status          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusActive || s == StatusArchived
}

type CreatePathway struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Nodes       json.RawMessage `json:"nodes"`
	Status      Status          `json:"status" validate:"omitempty,oneof=draft active archived"`
}

// UpdatePathway is a partial update; nil fields are left untouched.
type UpdatePathway struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Nodes       json.RawMessage `json:"nodes"`
	Status      *Status         `json:"status" validate:"omitempty,oneof=draft active archived"`
}

func (u *UpdatePathway) normalize() {
	if u.Name != nil {
		n := strings.TrimSpace(*u.Name)
		u.Name = &n
	}
}

func (u UpdatePathway) apply(p *Pathway) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if len(u.Nodes) > 0 {
		p.Nodes = nodesOrEmpty(u.Nodes)
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
}

func nodesOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return json.RawMessage(`[]`)
	}
	return raw
}
