package repositories

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)

	tokenHash := "verification-hash"
	created, err := repo.Create(ctx, &models.Account{
		Email:             "new@example.com",
		PasswordHash:      "bcrypt-hash",
		VerificationToken: &tokenHash,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.Equal(t, models.StatusActive, created.Status)
	assert.False(t, created.EmailVerified)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestAccountRepository_DuplicateEmailCaseInsensitive(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)

	_, err := repo.Create(ctx, &models.Account{Email: "dup@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	// The unique index is on LOWER(email), so case variants collide
	_, err = repo.Create(ctx, &models.Account{Email: "DUP@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAccountRepository_ConcurrentSignupsOneWinner(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)

	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, &models.Account{Email: "race@example.com", PasswordHash: "x"})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, models.ErrConflict)
		}
	}
	assert.Equal(t, 1, winners, "the unique index must admit exactly one signup")
}

func TestAccountRepository_VerifyByToken_ConsumesOnce(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)

	tokenHash := "one-shot-hash"
	created, err := repo.Create(ctx, &models.Account{
		Email:             "pending@example.com",
		PasswordHash:      "x",
		VerificationToken: &tokenHash,
	})
	require.NoError(t, err)

	verified, err := repo.VerifyByToken(ctx, tokenHash)
	require.NoError(t, err)
	assert.Equal(t, created.ID, verified.ID)
	assert.True(t, verified.EmailVerified)
	assert.Nil(t, verified.VerificationToken)

	// Second use of the same token must look exactly like an unknown token
	_, err = repo.VerifyByToken(ctx, tokenHash)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.VerifyByToken(ctx, "never-existed")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountRepository_SetVerificationToken_OnlyWhileUnverified(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)

	pending, err := repo.Create(ctx, &models.Account{Email: "p@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	deadline := time.Now().Add(24 * time.Hour)
	require.NoError(t, repo.SetVerificationToken(ctx, pending.ID, "fresh-hash", deadline))

	got, err := repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	require.NotNil(t, got.VerificationToken)
	assert.Equal(t, "fresh-hash", *got.VerificationToken)
	require.NotNil(t, got.VerificationExpiresAt)
	assert.WithinDuration(t, deadline, *got.VerificationExpiresAt, time.Second)

	// Verified accounts never get a new token
	verified := seedAccount(t, "v@example.com")
	err = repo.SetVerificationToken(ctx, verified.ID, "should-not-land", deadline)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountRepository_VerifyByToken_RejectsExpiredToken(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)

	tokenHash := "stale-hash"
	expired := time.Now().Add(-time.Minute)
	created, err := repo.Create(ctx, &models.Account{
		Email:                 "stale@example.com",
		PasswordHash:          "x",
		VerificationToken:     &tokenHash,
		VerificationExpiresAt: &expired,
	})
	require.NoError(t, err)

	// Past its deadline the token looks exactly like an unknown one
	_, err = repo.VerifyByToken(ctx, tokenHash)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// A resend with a fresh deadline makes the account verifiable again
	require.NoError(t, repo.SetVerificationToken(ctx, created.ID, "fresh-hash", time.Now().Add(time.Hour)))
	verified, err := repo.VerifyByToken(ctx, "fresh-hash")
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.Nil(t, verified.VerificationExpiresAt)
}

func TestAccountRepository_RecordFailedLogin_LocksAtThreshold(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)
	account := seedAccount(t, "lockme@example.com")

	var updated *models.Account
	var err error
	for i := 1; i <= 3; i++ {
		updated, err = repo.RecordFailedLogin(ctx, account.ID, 3, 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, updated.FailedLoginAttempts)
	}

	assert.Equal(t, models.StatusLocked, updated.Status)
	require.NotNil(t, updated.LockedUntil)
	assert.True(t, updated.LockedUntil.After(time.Now().Add(14*time.Minute)))

	// Below the threshold the account stays active
	other := seedAccount(t, "fine@example.com")
	updated, err = repo.RecordFailedLogin(ctx, other.ID, 3, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, updated.Status)
	assert.Nil(t, updated.LockedUntil)
}

func TestAccountRepository_ResetFailedLogins_UnlocksAccount(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)
	account := seedAccount(t, "unlock@example.com")

	for i := 0; i < 3; i++ {
		_, err := repo.RecordFailedLogin(ctx, account.ID, 3, 15*time.Minute)
		require.NoError(t, err)
	}

	require.NoError(t, repo.ResetFailedLogins(ctx, account.ID))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Nil(t, got.LockedUntil)
}

func TestAccountRepository_UpdateStatus(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)
	account := seedAccount(t, "status@example.com")

	updated, err := repo.UpdateStatus(ctx, account.ID, models.StatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, updated.Status)

	_, err = repo.UpdateStatus(ctx, "00000000-0000-0000-0000-000000000000", models.StatusActive)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAccountRepository_List_NewestFirst(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(testDB)

	emails := []string{"one@example.com", "two@example.com", "three@example.com"}
	for _, email := range emails {
		seedAccount(t, email)
		time.Sleep(5 * time.Millisecond)
	}

	accounts, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "three@example.com", strings.ToLower(accounts[0].Email))

	rest, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "one@example.com", strings.ToLower(rest[0].Email))
}
