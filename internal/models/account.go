package models

import (
	"time"
)

// Account roles. Coarse capability tiers gating handler access.
const (
	RoleUser      = "USER"
	RoleDeveloper = "DEVELOPER"
	RoleAdmin     = "ADMIN"
)

// Account statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusLocked    = "locked"
)

type Account struct {
	ID                    string
	Email                 string // stored lower-cased, unique
	PasswordHash          string
	Role                  string // "USER", "DEVELOPER", "ADMIN"
	EmailVerified         bool
	VerificationToken     *string    // sha256 hex of the emailed secret; nil once verified
	VerificationExpiresAt *time.Time // deadline for consuming the token; nil once verified
	Status                string     // "active", "suspended", "locked"
	FailedLoginAttempts   int
	LockedUntil           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsLocked reports whether a temporary lock is still in effect.
func (a *Account) IsLocked() bool {
	return a.LockedUntil != nil && time.Now().Before(*a.LockedUntil)
}

// ValidRole reports whether role is one of the known capability tiers.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleDeveloper, RoleAdmin:
		return true
	}
	return false
}
