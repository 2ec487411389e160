package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountSuspended = errors.New("account is suspended")
	ErrAccountLocked    = errors.New("account is temporarily locked")
	ErrEmailNotVerified = errors.New("email address not verified")

	// Token and session errors
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrSessionNotFound = errors.New("session not found")

	// Rate limiting
	ErrRateLimited = errors.New("rate limit exceeded")
)
