package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/colemarsh/gatehouse/internal/models"
	pkglogger "github.com/colemarsh/gatehouse/pkg/logger"
)

// AccountService handles account administration (admin-only surface).
type AccountService struct {
	accounts    AccountRepository
	sessions    SessionRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAccountService creates a new AccountService
func NewAccountService(accounts AccountRepository, sessions SessionRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AccountService {
	return &AccountService{
		accounts:    accounts,
		sessions:    sessions,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetAccount retrieves a single account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*AccountResponse, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return accountModelToResponse(account), nil
}

// ListAccounts retrieves a page of accounts.
func (s *AccountService) ListAccounts(ctx context.Context, limit, offset int) ([]*AccountResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, accountModelToResponse(account))
	}

	return responses, nil
}

// SetStatus suspends or reactivates an account. Suspending also destroys the
// account's sessions so existing refresh tokens stop working immediately.
func (s *AccountService) SetStatus(ctx context.Context, id, status string) (*AccountResponse, error) {
	if status != models.StatusActive && status != models.StatusSuspended {
		return nil, models.ErrBadRequest
	}

	account, err := s.accounts.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update account status",
			slog.String("user_id", id),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if status == models.StatusSuspended {
		if _, err := s.sessions.DeleteAllForUser(ctx, id); err != nil {
			s.logger.Error("failed to delete sessions for suspended account",
				slog.String("user_id", id),
				slog.Any("error", err))
		}
	}

	s.auditLogger.LogAccountAction("status_changed", id, "", map[string]string{"status": status})
	return accountModelToResponse(account), nil
}
