package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/colemarsh/gatehouse/internal/auth"
	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/colemarsh/gatehouse/internal/services"
	pkgauth "github.com/colemarsh/gatehouse/pkg/auth"
	pkghttp "github.com/colemarsh/gatehouse/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password string) (*services.AccountResponse, error)
	VerifyEmail(ctx context.Context, token string) (*services.AccountResponse, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*services.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	cookieConfig auth.CookieConfig
	refreshTTL   time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, cookieConfig auth.CookieConfig, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		refreshTTL:   refreshTTL,
	}
}

// Request DTOs

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest represents the request body for email verification
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResendVerificationRequest represents the request body for resending verification email
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Signup handles account creation. The account starts unverified; the
// verification token goes out by email, never in the response.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		var weakErr *pkgauth.WeakPasswordError
		switch {
		case errors.As(err, &weakErr):
			pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "weak_password",
				"Password does not meet the policy", weakErr.Reason)
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid request")
		case errors.Is(err, models.ErrConflict):
			// Generic message so the endpoint is not an email oracle
			pkghttp.WriteConflict(w, "Unable to create account with the provided details")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    account.ID,
		"email": account.Email,
		"role":  account.Role,
	})
}

// VerifyEmail consumes a verification token. Unknown, expired, and
// already-used tokens all produce the same response.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			pkghttp.WriteUnauthorized(w, "Invalid or expired verification token")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"email": account.Email,
		"role":  account.Role,
	})
}

// ResendVerification regenerates the verification token for a pending
// account. Always 202 with the same body, so the endpoint leaks nothing.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_ = h.service.ResendVerification(r.Context(), req.Email)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists with this email, a verification email will be sent.",
	})
}

// Login authenticates a credential pair. The access token comes back in the
// body; the refresh token rides only in an httpOnly cookie. Every
// authentication failure renders the same 401 body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized),
			errors.Is(err, models.ErrAccountSuspended),
			errors.Is(err, models.ErrAccountLocked),
			errors.Is(err, models.ErrEmailNotVerified):
			// One body for every cause; the caller learns nothing about the account
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetRefreshTokenCookie(w, resp.RefreshToken, h.refreshTTL, h.cookieConfig)
	writeJSON(w, http.StatusOK, resp)
}

// Refresh exchanges the refresh cookie for a new access token. The refresh
// token is not rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := auth.GetRefreshTokenCookie(r)
	if err != nil || refreshToken == "" {
		pkghttp.WriteUnauthorized(w, "Authentication failed")
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidToken),
			errors.Is(err, models.ErrAccountSuspended),
			errors.Is(err, models.ErrAccountLocked):
			auth.ClearRefreshTokenCookie(w, h.cookieConfig)
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": accessToken,
	})
}

// Logout destroys the session behind the refresh cookie and clears the
// cookie. Idempotent: succeeds with or without a live session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := auth.GetRefreshTokenCookie(r)
	if err == nil && refreshToken != "" {
		if err := h.service.Logout(r.Context(), refreshToken); err != nil {
			pkghttp.WriteInternalError(w, "Internal server error")
			return
		}
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// LogoutAll destroys every session for the authenticated user.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// Me echoes the authenticated identity from the access token claims.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":    claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
	})
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
