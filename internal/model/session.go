package model

import "time"

// Session is the identity provider's session, kept only in the sealed cookie.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IdentityUser is the subset of the provider's user record the app reads.
type IdentityUser struct {
	ID           string
	Email        string
	FullName     string
	AvatarURL    string
	Provider     string
	LastSignInAt *time.Time
}
