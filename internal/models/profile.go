package models

import "time"

// Identity is the signed-in principal as known to the identity service.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile is the extended user record. Field names follow the profiles table
// so the persisted local session round-trips unchanged.
type Profile struct {
	ID        string    `json:"id" yaml:"id"`
	Email     string    `json:"email" yaml:"email"`
	FullName  string    `json:"full_name" yaml:"full_name"`
	Phone     *string   `json:"phone" yaml:"phone"`
	AvatarURL *string   `json:"avatar_url" yaml:"avatar_url"`
	Role      Role      `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Identity returns the identity this profile belongs to.
func (p *Profile) Identity() Identity {
	return Identity{ID: p.ID, Email: p.Email}
}

// FirstName is used for greetings; falls back to "Cliente".
func (p *Profile) FirstName() string {
	if p == nil || p.FullName == "" {
		return "Cliente"
	}
	for i, r := range p.FullName {
		if r == ' ' {
			return p.FullName[:i]
		}
	}
	return p.FullName
}

// Session is what an identity backend hands back after a successful sign-in.
// Profile is only filled when the backend already knows it (local mode).
type Session struct {
	Identity     Identity  `json:"identity"`
	Profile      *Profile  `json:"profile,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
