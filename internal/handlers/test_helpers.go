package handlers

import (
	"context"

	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/colemarsh/gatehouse/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc             func(ctx context.Context, email, password string) (*services.AccountResponse, error)
	VerifyEmailFunc        func(ctx context.Context, token string) (*services.AccountResponse, error)
	ResendVerificationFunc func(ctx context.Context, email string) error
	LoginFunc              func(ctx context.Context, email, password string) (*services.LoginResponse, error)
	RefreshFunc            func(ctx context.Context, refreshToken string) (string, error)
	LogoutFunc             func(ctx context.Context, refreshToken string) error
	LogoutAllFunc          func(ctx context.Context, userID string) error
}

func (m *MockAuthService) Signup(ctx context.Context, email, password string) (*services.AccountResponse, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) (*services.AccountResponse, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, token)
	}
	return nil, models.ErrInvalidToken
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return "", models.ErrInvalidToken
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

func (m *MockAuthService) LogoutAll(ctx context.Context, userID string) error {
	if m.LogoutAllFunc != nil {
		return m.LogoutAllFunc(ctx, userID)
	}
	return nil
}

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	GetAccountFunc   func(ctx context.Context, id string) (*services.AccountResponse, error)
	ListAccountsFunc func(ctx context.Context, limit, offset int) ([]*services.AccountResponse, error)
	SetStatusFunc    func(ctx context.Context, id, status string) (*services.AccountResponse, error)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id string) (*services.AccountResponse, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountService) ListAccounts(ctx context.Context, limit, offset int) ([]*services.AccountResponse, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, limit, offset)
	}
	return []*services.AccountResponse{}, nil
}

func (m *MockAccountService) SetStatus(ctx context.Context, id, status string) (*services.AccountResponse, error) {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status)
	}
	return nil, models.ErrNotFound
}
