package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is what the identity provider vouches for. ParticipantID is opaque.
type Identity struct {
	ParticipantID string `json:"participant_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"display_name,omitempty"`
}

type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"email_verified"`
	DisplayName   string    `json:"display_name"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RefreshToken is persisted by hash only; the raw token is handed to the
// client once.
type RefreshToken struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID string    `json:"participant_id"`
	TokenHash     string    `json:"-"`
	ExpiresAt     time.Time `json:"expires_at"`
	Revoked       bool      `json:"revoked"`
	CreatedAt     time.Time `json:"created_at"`
}

func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
