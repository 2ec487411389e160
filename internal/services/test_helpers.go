package services

import (
	"context"
	"time"

	"github.com/colemarsh/gatehouse/internal/models"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	CreateFunc               func(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByIDFunc              func(ctx context.Context, id string) (*models.Account, error)
	GetByEmailFunc           func(ctx context.Context, email string) (*models.Account, error)
	ListFunc                 func(ctx context.Context, limit, offset int) ([]*models.Account, error)
	VerifyByTokenFunc        func(ctx context.Context, tokenHash string) (*models.Account, error)
	SetVerificationTokenFunc func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	RecordFailedLoginFunc    func(ctx context.Context, id string, threshold int, lockout time.Duration) (*models.Account, error)
	ResetFailedLoginsFunc    func(ctx context.Context, id string) error
	UpdateStatusFunc         func(ctx context.Context, id, status string) (*models.Account, error)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.Account{}, nil
}

func (m *MockAccountRepository) VerifyByToken(ctx context.Context, tokenHash string) (*models.Account, error) {
	if m.VerifyByTokenFunc != nil {
		return m.VerifyByTokenFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetVerificationTokenFunc != nil {
		return m.SetVerificationTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockAccountRepository) RecordFailedLogin(ctx context.Context, id string, threshold int, lockout time.Duration) (*models.Account, error) {
	if m.RecordFailedLoginFunc != nil {
		return m.RecordFailedLoginFunc(ctx, id, threshold, lockout)
	}
	return nil, nil
}

func (m *MockAccountRepository) ResetFailedLogins(ctx context.Context, id string) error {
	if m.ResetFailedLoginsFunc != nil {
		return m.ResetFailedLoginsFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Account, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, models.ErrNotFound
}

// MockSessionRepository implements SessionRepository for testing
type MockSessionRepository struct {
	CreateFunc            func(ctx context.Context, userID, refreshTokenHash string, expiresAt time.Time, maxPerUser int) (*models.Session, error)
	FindActiveByTokenFunc func(ctx context.Context, refreshTokenHash string) (*models.Session, error)
	DeleteByTokenFunc     func(ctx context.Context, refreshTokenHash string) error
	DeleteAllForUserFunc  func(ctx context.Context, userID string) (int64, error)
	DeleteExpiredFunc     func(ctx context.Context) (int64, error)
	CountActiveFunc       func(ctx context.Context, userID string) (int, error)
}

func (m *MockSessionRepository) Create(ctx context.Context, userID, refreshTokenHash string, expiresAt time.Time, maxPerUser int) (*models.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, refreshTokenHash, expiresAt, maxPerUser)
	}
	return &models.Session{
		ID: "session-1", UserID: userID, RefreshToken: refreshTokenHash,
		ExpiresAt: expiresAt, CreatedAt: time.Now(),
	}, nil
}

func (m *MockSessionRepository) FindActiveByToken(ctx context.Context, refreshTokenHash string) (*models.Session, error) {
	if m.FindActiveByTokenFunc != nil {
		return m.FindActiveByTokenFunc(ctx, refreshTokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionRepository) DeleteByToken(ctx context.Context, refreshTokenHash string) error {
	if m.DeleteByTokenFunc != nil {
		return m.DeleteByTokenFunc(ctx, refreshTokenHash)
	}
	return nil
}

func (m *MockSessionRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	if m.DeleteAllForUserFunc != nil {
		return m.DeleteAllForUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	return 0, nil
}

func (m *MockSessionRepository) CountActive(ctx context.Context, userID string) (int, error) {
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx, userID)
	}
	return 0, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendVerificationEmailFunc func(ctx context.Context, email, token string) error
	SentTokens                []string
}

func (m *MockEmailService) SendVerificationEmail(ctx context.Context, email, token string) error {
	m.SentTokens = append(m.SentTokens, token)
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, email, token)
	}
	return nil
}

// NewTestAccount returns a verified, active account for login tests
func NewTestAccount(id, email, passwordHash string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:            id,
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          models.RoleUser,
		EmailVerified: true,
		Status:        models.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
