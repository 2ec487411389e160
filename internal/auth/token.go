package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const opaqueTokenBytes = 32 // 256 bits of entropy for refresh and verification secrets

// TokenManager mints and validates signed access tokens and generates the
// opaque secrets used for refresh sessions and email verification.
// Access tokens are stateless; refresh tokens are capabilities backed by the
// session store and are never structured tokens.
type TokenManager struct {
	secret             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, accessExpiry, refreshExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:             secret,
		accessTokenExpiry:  accessExpiry,
		refreshTokenExpiry: refreshExpiry,
	}
}

// RefreshTokenExpiry exposes the configured refresh lifetime for session creation.
func (tm *TokenManager) RefreshTokenExpiry() time.Duration {
	return tm.refreshTokenExpiry
}

// GenerateAccessToken creates a short-lived signed access token carrying the
// user's identity and role.
func (tm *TokenManager) GenerateAccessToken(userID, email, role string) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken verifies signature and expiry and returns the claims.
// Signature and expiry failures are collapsed into models.ErrUnauthorized so
// callers cannot be used as a validity oracle.
func (tm *TokenManager) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil || !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.UserID == "" || claims.Role == "" {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}

// GenerateOpaqueToken returns a cryptographically random URL-safe secret.
// Used for refresh tokens and email verification tokens.
func GenerateOpaqueToken() (string, error) {
	bytes := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate opaque token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// HashToken computes the sha256 hex digest stored in place of the plain
// secret. Matching by hash keeps the raw capability out of the database.
func HashToken(plainToken string) string {
	sum := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(sum[:])
}
