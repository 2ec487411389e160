package background

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/colemarsh/gatehouse/internal/ratelimit"
)

type mockSweeper struct {
	calls atomic.Int32
}

func (m *mockSweeper) DeleteExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return 1, nil
}

func TestCleanupManager_RunsImmediatelyAndStops(t *testing.T) {
	sweeper := &mockSweeper{}
	cm := NewCleanupManager(sweeper, ratelimit.NewMemoryStore(), time.Minute, slog.Default(), time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	// The startup run should happen well before the first tick
	deadline := time.After(2 * time.Second)
	for sweeper.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("cleanup did not run on startup")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cm.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}

func TestCleanupManager_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cm := NewCleanupManager(&mockSweeper{}, nil, time.Minute, slog.Default(), time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup manager did not stop on context cancel")
	}
}
