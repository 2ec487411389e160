// Package ratelimit implements a fixed-window request limiter keyed by
// client identity and action class. Window boundaries are fixed, not
// sliding: a burst straddling a boundary can admit up to 2x the limit,
// an accepted tradeoff for a single atomic counter per key.
package ratelimit

import (
	"sync"
	"time"
)

// Action classes. Each class has an independent counter per client key;
// exhausting one class never affects another.
const (
	ClassGeneral = "general"
	ClassAuth    = "auth"
	ClassReview  = "review"
	ClassUpload  = "upload"
)

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time // when the current window ends; meaningful on denial
}

// CounterStore is the shared counter state behind the limiter. The in-memory
// implementation below serves a single process; a multi-instance deployment
// swaps in an external atomic-increment store without touching the limiter.
type CounterStore interface {
	// Increment atomically bumps the counter for key, starting a fresh
	// window when none exists or the current one has elapsed. It returns
	// the post-increment count and the window start.
	Increment(key string, window time.Duration) (count int, windowStart time.Time)
}

type windowState struct {
	count       int
	windowStart time.Time
}

// MemoryStore is a mutex-guarded map of windows. Increment-and-compare runs
// under one lock so two concurrent requests cannot both observe "under limit"
// at the threshold.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*windowState
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*windowState),
		now:     time.Now,
	}
}

func (s *MemoryStore) Increment(key string, window time.Duration) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	state, ok := s.windows[key]
	if !ok || now.Sub(state.windowStart) >= window {
		state = &windowState{count: 0, windowStart: now}
		s.windows[key] = state
	}

	state.count++
	return state.count, state.windowStart
}

// Sweep drops windows that ended before now. Optional maintenance; stale
// windows are also replaced lazily on the next increment.
func (s *MemoryStore) Sweep(window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, state := range s.windows {
		if now.Sub(state.windowStart) >= window {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Limits maps an action class to its per-window maximum.
type Limits map[string]int

// Limiter applies fixed-window limits per (clientKey, actionClass).
type Limiter struct {
	store  CounterStore
	window time.Duration
	limits Limits
}

// NewLimiter creates a Limiter over the given store. Classes absent from
// limits are unlimited.
func NewLimiter(store CounterStore, window time.Duration, limits Limits) *Limiter {
	return &Limiter{
		store:  store,
		window: window,
		limits: limits,
	}
}

// Allow records one attempt for (clientKey, class) and reports whether it is
// admitted. Denials carry the window reset time; the window is never reset
// early by denied attempts.
func (l *Limiter) Allow(clientKey, class string) Decision {
	max, limited := l.limits[class]
	if !limited {
		return Decision{Allowed: true}
	}

	count, windowStart := l.store.Increment(class+":"+clientKey, l.window)
	resetAt := windowStart.Add(l.window)

	if count > max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	return Decision{Allowed: true, Remaining: max - count, ResetAt: resetAt}
}
