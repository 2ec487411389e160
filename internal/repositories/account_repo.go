package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/colemarsh/gatehouse/internal/database"
	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, email, password_hash, role, email_verified, verification_token, verification_expires_at, status, failed_login_attempts, locked_until, created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

// rowScanner interface for scanning account rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccountRow handles nullable fields and populates an Account model from a database row
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var verificationToken *string
	var verificationExpiresAt *time.Time
	var lockedUntil *time.Time

	err := scanner.Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.Role,
		&account.EmailVerified, &verificationToken, &verificationExpiresAt,
		&account.Status, &account.FailedLoginAttempts, &lockedUntil,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	account.VerificationToken = verificationToken
	account.VerificationExpiresAt = verificationExpiresAt
	account.LockedUntil = lockedUntil

	return &account, nil
}

func scanAccountRows(rows pgx.Rows) ([]*models.Account, error) {
	defer rows.Close()

	accounts := make([]*models.Account, 0)

	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

// Create inserts a new account. The unique index on lower-cased email is the
// arbiter for concurrent signups; a duplicate surfaces as models.ErrConflict
// rather than being pre-checked in application code.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.Role == "" {
		account.Role = models.RoleUser
	}
	if account.Status == "" {
		account.Status = models.StatusActive
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, role, email_verified, verification_token, verification_expires_at, status, failed_login_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + accountColumns

	created, err := scanAccountRow(r.pool.QueryRow(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Role,
		account.EmailVerified, account.VerificationToken, account.VerificationExpiresAt,
		account.Status, account.FailedLoginAttempts, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail looks up an account by its normalized (lower-cased) email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccountRow(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	return scanAccountRows(rows)
}

// VerifyByToken consumes a verification token in a single atomic update.
// The WHERE clause only matches an unverified account still holding the
// token hash within its deadline, so a second call with the same token (or
// one past its deadline) finds zero rows and returns models.ErrNotFound.
// "Not found", "already verified", and "expired" are indistinguishable to
// the caller. A NULL deadline means the token does not expire.
func (r *AccountRepository) VerifyByToken(ctx context.Context, tokenHash string) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET email_verified = true, verification_token = NULL, verification_expires_at = NULL, updated_at = $2
		WHERE verification_token = $1 AND email_verified = false
		  AND (verification_expires_at IS NULL OR verification_expires_at > $2)
		RETURNING ` + accountColumns

	return scanAccountRow(r.pool.QueryRow(ctx, query, tokenHash, time.Now()))
}

// SetVerificationToken replaces the pending verification token and its
// deadline for an unverified account. Used when a verification email is
// resent.
func (r *AccountRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET verification_token = $2, verification_expires_at = $3, updated_at = $4
		WHERE id = $1 AND email_verified = false
	`

	result, err := r.pool.Exec(ctx, query, id, tokenHash, expiresAt, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// RecordFailedLogin bumps the failure counter and, when the threshold is
// reached, flips the account to locked for lockout. Counter, status, and
// lock expiry move in one statement so concurrent failures cannot observe a
// partial transition.
func (r *AccountRepository) RecordFailedLogin(ctx context.Context, id string, threshold int, lockout time.Duration) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET failed_login_attempts = failed_login_attempts + 1,
		    status = CASE WHEN failed_login_attempts + 1 >= $2 THEN 'locked' ELSE status END,
		    locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
		    updated_at = $4
		WHERE id = $1
		RETURNING ` + accountColumns

	now := time.Now()
	return scanAccountRow(r.pool.QueryRow(ctx, query, id, threshold, now.Add(lockout), now))
}

// ResetFailedLogins clears the failure counter and any expired lock after a
// successful authentication.
func (r *AccountRepository) ResetFailedLogins(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    status = CASE WHEN status = 'locked' THEN 'active' ELSE status END,
		    updated_at = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdateStatus sets an account's status. Admin suspend/reactivate path.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET status = $2, locked_until = NULL, updated_at = $3
		WHERE id = $1
		RETURNING ` + accountColumns

	return scanAccountRow(r.pool.QueryRow(ctx, query, id, status, time.Now()))
}
