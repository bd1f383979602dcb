package users

import (
	"strings"
	"time"
)

// User is the account owner. Every call, pathway and knowledge base row
// references a user id and is deleted with it.
type User struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`

	Company string `json:"company" db:"company"`

	// ProviderAPIKey is the user's own voice provider key. Calls are only
	// dispatched when it is set.
	ProviderAPIKey string `json:"blandApiKey" db:"provider_api_key"`
	WebhookURL     string `json:"webhookUrl" db:"webhook_url"`
	WebhookEnabled bool   `json:"webhookEnabled" db:"webhook_enabled"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Public is the user as returned next to a fresh session token. It never
// carries the provider key or webhook settings.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email, Company: u.Company, CreatedAt: u.CreatedAt}
}

// ProfileUpdate is a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=200"`
	Company        *string `json:"company" validate:"omitempty,max=200"`
	ProviderAPIKey *string `json:"blandApiKey" validate:"omitempty,max=500"`
	WebhookURL     *string `json:"webhookUrl" validate:"omitempty,url_or_empty"`
	WebhookEnabled *bool   `json:"webhookEnabled"`
}

// normalize trims every text field so validation sees the stored value.
func (u *ProfileUpdate) normalize() {
	for _, f := range []**string{&u.Name, &u.Company, &u.ProviderAPIKey, &u.WebhookURL} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
}

func (u ProfileUpdate) apply(dst *User) {
	if u.Name != nil {
		dst.Name = *u.Name
	}
	if u.Company != nil {
		dst.Company = *u.Company
	}
	if u.ProviderAPIKey != nil {
		dst.ProviderAPIKey = *u.ProviderAPIKey
	}
	if u.WebhookURL != nil {
		dst.WebhookURL = *u.WebhookURL
	}
	if u.WebhookEnabled != nil {
		dst.WebhookEnabled = *u.WebhookEnabled
	}
}

// NormalizeEmail is applied on every write and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
