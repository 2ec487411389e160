package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateAndFind(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "sess@example.com")

	hash := tokenHashFor("live")
	created, err := repo.Create(ctx, account.ID, hash, time.Now().Add(time.Hour), 5)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := repo.FindActiveByToken(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, account.ID, found.UserID)
}

func TestSessionRepository_FindActiveByToken_ExcludesExpired(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "expired@example.com")

	hash := tokenHashFor("expired")
	_, err := repo.Create(ctx, account.ID, hash, time.Now().Add(-time.Minute), 5)
	require.NoError(t, err)

	_, err = repo.FindActiveByToken(ctx, hash)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSessionRepository_CountActive_ExcludesExpired(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "count@example.com")

	count, err := repo.CountActive(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = repo.Create(ctx, account.ID, tokenHashFor("count-live"), time.Now().Add(time.Hour), 5)
	require.NoError(t, err)
	_, err = repo.Create(ctx, account.ID, tokenHashFor("count-dead"), time.Now().Add(-time.Minute), 5)
	require.NoError(t, err)

	count, err = repo.CountActive(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "expired sessions must not count against the cap")
}

func TestSessionRepository_CapEvictsOldest(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "cap@example.com")

	const maxPerUser = 5
	hashes := make([]string, 0, maxPerUser+1)
	for i := 0; i < maxPerUser; i++ {
		hash := tokenHashFor("cap")
		hashes = append(hashes, hash)
		_, err := repo.Create(ctx, account.ID, hash, time.Now().Add(time.Hour), maxPerUser)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	// The sixth login evicts exactly the oldest session
	newest := tokenHashFor("cap")
	_, err := repo.Create(ctx, account.ID, newest, time.Now().Add(time.Hour), maxPerUser)
	require.NoError(t, err)

	count, err := repo.CountActive(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, maxPerUser, count)

	_, err = repo.FindActiveByToken(ctx, hashes[0])
	assert.ErrorIs(t, err, models.ErrNotFound, "oldest session must be gone")

	for _, hash := range append(hashes[1:], newest) {
		_, err := repo.FindActiveByToken(ctx, hash)
		assert.NoError(t, err, "newer sessions must survive eviction")
	}
}

func TestSessionRepository_CapIgnoresExpiredSessions(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "deadcap@example.com")

	// Expired sessions do not count toward the cap and are not the eviction
	// target; only live rows matter
	_, err := repo.Create(ctx, account.ID, tokenHashFor("dead"), time.Now().Add(-time.Hour), 2)
	require.NoError(t, err)

	liveA := tokenHashFor("liveA")
	liveB := tokenHashFor("liveB")
	_, err = repo.Create(ctx, account.ID, liveA, time.Now().Add(time.Hour), 2)
	require.NoError(t, err)
	_, err = repo.Create(ctx, account.ID, liveB, time.Now().Add(time.Hour), 2)
	require.NoError(t, err)

	count, err := repo.CountActive(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = repo.FindActiveByToken(ctx, liveA)
	assert.NoError(t, err)
}

func TestSessionRepository_DeleteByToken_Idempotent(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "del@example.com")

	hash := tokenHashFor("del")
	_, err := repo.Create(ctx, account.ID, hash, time.Now().Add(time.Hour), 5)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByToken(ctx, hash))
	_, err = repo.FindActiveByToken(ctx, hash)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Deleting again is not an error
	assert.NoError(t, repo.DeleteByToken(ctx, hash))
}

func TestSessionRepository_DeleteAllForUser(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "all@example.com")
	other := seedAccount(t, "other@example.com")

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, account.ID, tokenHashFor("all"), time.Now().Add(time.Hour), 5)
		require.NoError(t, err)
	}
	otherHash := tokenHashFor("other")
	_, err := repo.Create(ctx, other.ID, otherHash, time.Now().Add(time.Hour), 5)
	require.NoError(t, err)

	deleted, err := repo.DeleteAllForUser(ctx, account.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	// Other users' sessions are untouched
	_, err = repo.FindActiveByToken(ctx, otherHash)
	assert.NoError(t, err)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "sweep@example.com")

	liveHash := tokenHashFor("live")
	_, err := repo.Create(ctx, account.ID, liveHash, time.Now().Add(time.Hour), 5)
	require.NoError(t, err)
	_, err = repo.Create(ctx, account.ID, tokenHashFor("dead"), time.Now().Add(-time.Hour), 5)
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = repo.FindActiveByToken(ctx, liveHash)
	assert.NoError(t, err)
}

func TestSessionRepository_CascadeOnAccountDelete(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	account := seedAccount(t, "cascade@example.com")

	hash := tokenHashFor("cascade")
	_, err := repo.Create(ctx, account.ID, hash, time.Now().Add(time.Hour), 5)
	require.NoError(t, err)

	_, err = testPool.Exec(ctx, "DELETE FROM accounts WHERE id = $1", account.ID)
	require.NoError(t, err)

	_, err = repo.FindActiveByToken(ctx, hash)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
