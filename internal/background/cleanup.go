package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/colemarsh/gatehouse/internal/ratelimit"
)

// SessionSweeper is the subset of the session store the cleanup loop needs.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically removes expired sessions from the database and
// dead windows from the in-memory rate-limit store.
type CleanupManager struct {
	sessions      SessionSweeper
	limiterStore  *ratelimit.MemoryStore
	limiterWindow time.Duration
	logger        *slog.Logger
	interval      time.Duration
	stopCh        chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	sessions SessionSweeper,
	limiterStore *ratelimit.MemoryStore,
	limiterWindow time.Duration,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		sessions:      sessions,
		limiterStore:  limiterStore,
		limiterWindow: limiterWindow,
		logger:        logger,
		interval:      interval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup deletes only logically-dead state: sessions past expiry and
// limiter windows that have already elapsed. Safe to run concurrently with
// request traffic.
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.sessions.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired sessions", slog.Any("error", err))
	} else if rowsDeleted > 0 {
		cm.logger.Info("expired session cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}

	if cm.limiterStore != nil {
		if swept := cm.limiterStore.Sweep(cm.limiterWindow); swept > 0 {
			cm.logger.Info("rate-limit window sweep completed", slog.Int("windows_removed", swept))
		}
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
