package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims embedded in a signed access token.
// They are derived state, never persisted.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
