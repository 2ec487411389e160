package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/colemarsh/gatehouse/internal/auth"
	"github.com/colemarsh/gatehouse/internal/models"
	pkgauth "github.com/colemarsh/gatehouse/pkg/auth"
	pkglogger "github.com/colemarsh/gatehouse/pkg/logger"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	VerifyByToken(ctx context.Context, tokenHash string) (*models.Account, error)
	SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	RecordFailedLogin(ctx context.Context, id string, threshold int, lockout time.Duration) (*models.Account, error)
	ResetFailedLogins(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id, status string) (*models.Account, error)
}

// SessionRepository defines the interface for refresh-token session storage
type SessionRepository interface {
	Create(ctx context.Context, userID, refreshTokenHash string, expiresAt time.Time, maxPerUser int) (*models.Session, error)
	FindActiveByToken(ctx context.Context, refreshTokenHash string) (*models.Session, error)
	DeleteByToken(ctx context.Context, refreshTokenHash string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
	CountActive(ctx context.Context, userID string) (int, error)
}

// LockoutPolicy configures the consecutive-failure lock.
type LockoutPolicy struct {
	MaxFailedLogins int
	LockoutDuration time.Duration
}

// AuthService handles the credential and session lifecycle
type AuthService struct {
	accounts        AccountRepository
	sessions        SessionRepository
	tm              *auth.TokenManager
	email           EmailService
	lockout         LockoutPolicy
	maxSessions     int
	verificationTTL time.Duration
	logger          *slog.Logger
	auditLogger     *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	accounts AccountRepository,
	sessions SessionRepository,
	tm *auth.TokenManager,
	email EmailService,
	lockout LockoutPolicy,
	maxSessions int,
	verificationTTL time.Duration,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		accounts:        accounts,
		sessions:        sessions,
		tm:              tm,
		email:           email,
		lockout:         lockout,
		maxSessions:     maxSessions,
		verificationTTL: verificationTTL,
		logger:          logger,
		auditLogger:     auditLogger,
	}
}

// AccountResponse represents an account in HTTP responses
type AccountResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// LoginResponse carries the token pair from login. The refresh token is the
// plain opaque secret; the handler moves it into an httpOnly cookie and it is
// never returned again.
type LoginResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"-"`
	Account      *AccountResponse `json:"account"`
}

// Signup validates the password policy, persists a pending unverified
// account, and asks the email collaborator to deliver the verification token.
// Email delivery failure does not fail the signup; the token can be resent.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AccountResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	plainToken, err := auth.GenerateOpaqueToken()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	tokenHash := auth.HashToken(plainToken)
	tokenExpiry := time.Now().Add(s.verificationTTL)

	account := &models.Account{
		Email:                 email,
		PasswordHash:          passwordHash,
		Role:                  models.RoleUser,
		VerificationToken:     &tokenHash,
		VerificationExpiresAt: &tokenExpiry,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("signup failed: email already registered")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Out-of-band delivery; the signup has already committed
	if err := s.email.SendVerificationEmail(ctx, created.Email, plainToken); err != nil {
		s.logger.Error("failed to send verification email",
			slog.String("user_id", created.ID),
			slog.Any("error", err))
	}

	s.logger.Info("account created", slog.String("user_id", created.ID))
	s.auditLogger.LogAccountAction("account_created", created.ID, "", nil)

	return accountModelToResponse(created), nil
}

// VerifyEmail consumes a verification token. The token is single-use: the
// store flips it to NULL atomically, so a second call with the same token
// fails with ErrInvalidToken, indistinguishable from a token that never
// existed.
func (s *AuthService) VerifyEmail(ctx context.Context, plainToken string) (*AccountResponse, error) {
	if strings.TrimSpace(plainToken) == "" {
		return nil, models.ErrInvalidToken
	}

	account, err := s.accounts.VerifyByToken(ctx, auth.HashToken(plainToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("verification failed: token not found or already used")
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("failed to verify email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("user_id", account.ID))
	s.auditLogger.LogAccountAction("email_verified", account.ID, "", nil)

	return accountModelToResponse(account), nil
}

// ResendVerification regenerates the verification token for a pending
// account. Silent for unknown or already-verified emails to avoid
// enumeration.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up account for resend", slog.Any("error", err))
		}
		return nil
	}
	if account.EmailVerified {
		return nil
	}

	plainToken, err := auth.GenerateOpaqueToken()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return nil
	}

	if err := s.accounts.SetVerificationToken(ctx, account.ID, auth.HashToken(plainToken), time.Now().Add(s.verificationTTL)); err != nil {
		s.logger.Error("failed to store verification token",
			slog.String("user_id", account.ID),
			slog.Any("error", err))
		return nil
	}

	if err := s.email.SendVerificationEmail(ctx, account.Email, plainToken); err != nil {
		s.logger.Error("failed to resend verification email",
			slog.String("user_id", account.ID),
			slog.Any("error", err))
	}

	return nil
}

// Login authenticates a credential pair and opens a session. Unknown email
// and wrong password collapse into the same ErrUnauthorized; account-state
// failures surface distinctly to the handler, which renders them all as a
// generic 401.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email == "" {
		return nil, models.ErrUnauthorized
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(account); err != nil {
		s.logger.Info("login blocked due to account state",
			slog.String("user_id", account.ID),
			slog.String("status", account.Status))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        account.ID,
			FailureReason: "account_blocked",
			Success:       false,
		})
		return nil, err
	}

	if !account.EmailVerified {
		s.logger.Info("login blocked: email not verified", slog.String("user_id", account.ID))
		return nil, models.ErrEmailNotVerified
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, password); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        account.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		if _, err := s.accounts.RecordFailedLogin(ctx, account.ID, s.lockout.MaxFailedLogins, s.lockout.LockoutDuration); err != nil {
			s.logger.Error("failed to record failed login",
				slog.String("user_id", account.ID),
				slog.Any("error", err))
		}
		return nil, models.ErrUnauthorized
	}

	if account.FailedLoginAttempts > 0 {
		if err := s.accounts.ResetFailedLogins(ctx, account.ID); err != nil {
			s.logger.Error("failed to reset failed logins",
				slog.String("user_id", account.ID),
				slog.Any("error", err))
		}
	}

	accessToken, err := s.tm.GenerateAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := auth.GenerateOpaqueToken()
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.tm.RefreshTokenExpiry())
	if _, err := s.sessions.Create(ctx, account.ID, auth.HashToken(refreshToken), expiresAt, s.maxSessions); err != nil {
		s.logger.Error("failed to create session", slog.String("user_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", account.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    account.ID,
		Success:   true,
	})

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      accountModelToResponse(account),
	}, nil
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is not rotated; the session continues until expiry or logout.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", models.ErrInvalidToken
	}

	session, err := s.sessions.FindActiveByToken(ctx, auth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("refresh failed: no active session for token")
			return "", models.ErrInvalidToken
		}
		s.logger.Error("failed to look up session", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	account, err := s.accounts.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("refresh failed: account gone", slog.String("user_id", session.UserID))
			return "", models.ErrInvalidToken
		}
		s.logger.Error("failed to get account for refresh", slog.String("user_id", session.UserID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if err := validateAccountState(account); err != nil {
		s.logger.Info("refresh blocked due to account state",
			slog.String("user_id", account.ID),
			slog.String("status", account.Status))
		return "", err
	}

	accessToken, err := s.tm.GenerateAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", account.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.logger.Info("access token refreshed", slog.String("user_id", account.ID))
	return accessToken, nil
}

// Logout destroys the session holding this refresh token. Idempotent: a
// token that is already gone is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}

	if err := s.sessions.DeleteByToken(ctx, auth.HashToken(refreshToken)); err != nil {
		s.logger.Error("failed to delete session", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// LogoutAll destroys every session for the user ("logout all devices").
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	deleted, err := s.sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to delete user sessions", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out from all devices",
		slog.String("user_id", userID),
		slog.Int64("sessions_deleted", deleted))
	s.auditLogger.LogAccountAction("logout_all", userID, "", nil)
	return nil
}

// validateAccountState checks if an account may authenticate.
func validateAccountState(account *models.Account) error {
	switch account.Status {
	case models.StatusSuspended:
		return models.ErrAccountSuspended
	case models.StatusLocked:
		if account.IsLocked() {
			return models.ErrAccountLocked
		}
		// Lock has expired; the next successful login resets the status
	case models.StatusActive:
		if account.IsLocked() {
			return models.ErrAccountLocked
		}
	default:
		return models.ErrAccountSuspended
	}

	return nil
}

// accountModelToResponse converts an account model to its response DTO
func accountModelToResponse(account *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:            account.ID,
		Email:         account.Email,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
		Status:        account.Status,
		CreatedAt:     account.CreatedAt.Format(time.RFC3339),
	}
}
