package models

import "time"

// Session binds a refresh token to an account. Possession of the stored
// refresh token value is the sole proof of continued login.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string // sha256 hex of the opaque secret handed to the client
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// IsExpired checks if the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
