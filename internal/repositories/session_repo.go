package repositories

import (
	"context"
	"time"

	"github.com/colemarsh/gatehouse/internal/database"
	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, user_id, refresh_token, expires_at, created_at`

// SessionRepository persists refresh-token sessions. The table is the single
// source of truth for who is still logged in.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

func scanSessionRow(scanner rowScanner) (*models.Session, error) {
	var session models.Session

	err := scanner.Scan(
		&session.ID, &session.UserID, &session.RefreshToken,
		&session.ExpiresAt, &session.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &session, nil
}

// Create inserts a session, first evicting the oldest live session when the
// user is at capacity. Eviction order is creation time, not last use.
// The count-then-insert sequence is not transactional across concurrent
// logins; the cap can transiently overshoot and self-corrects on the next
// login.
func (r *SessionRepository) Create(ctx context.Context, userID, refreshTokenHash string, expiresAt time.Time, maxPerUser int) (*models.Session, error) {
	live, err := r.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if live >= maxPerUser {
		evict := `
			DELETE FROM sessions
			WHERE id IN (
				SELECT id FROM sessions
				WHERE user_id = $1 AND expires_at > $2
				ORDER BY created_at ASC
				LIMIT 1
			)
		`
		if _, err := r.pool.Exec(ctx, evict, userID, time.Now()); err != nil {
			return nil, database.MapPostgresError(err)
		}
	}

	query := `
		INSERT INTO sessions (id, user_id, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sessionColumns

	session, err := scanSessionRow(r.pool.QueryRow(ctx, query,
		uuid.New().String(), userID, refreshTokenHash, expiresAt, time.Now(),
	))
	if err != nil {
		return nil, err
	}

	return session, nil
}

// FindActiveByToken returns the session holding this token hash, matching
// only sessions that have not yet expired.
func (r *SessionRepository) FindActiveByToken(ctx context.Context, refreshTokenHash string) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE refresh_token = $1 AND expires_at > $2
	`

	return scanSessionRow(r.pool.QueryRow(ctx, query, refreshTokenHash, time.Now()))
}

// DeleteByToken removes a session by its token hash. Idempotent: deleting a
// session that is already gone is not an error.
func (r *SessionRepository) DeleteByToken(ctx context.Context, refreshTokenHash string) error {
	query := `DELETE FROM sessions WHERE refresh_token = $1`

	if _, err := r.pool.Exec(ctx, query, refreshTokenHash); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// DeleteAllForUser removes every session for an account ("logout all devices").
func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `DELETE FROM sessions WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

// DeleteExpired removes sessions past their expiry. Safe to run concurrently
// with any other operation since it only touches rows already logically dead.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	result, err := r.pool.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

// CountActive counts the live (non-expired) sessions for a user.
func (r *SessionRepository) CountActive(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND expires_at > $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, time.Now()).Scan(&count); err != nil {
		return 0, database.MapPostgresError(err)
	}

	return count, nil
}
