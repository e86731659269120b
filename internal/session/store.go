// Package session holds the client-side session record: in-memory state
// with merge semantics, durable persistence, and the profile fetch that
// hydrates it from the backend.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/careconnect/referral-client/internal/domain"
)

const persistTimeout = 5 * time.Second

// Store owns the session record. It is constructed once at application
// start and torn down at sign-out; every view reads through it instead of
// ambient shared state.
type Store struct {
	mu           sync.RWMutex
	rec          domain.SessionRecord
	repo         Repository
	userURL      string
	fetchTimeout time.Duration
	clearHooks   []func()
}

// New creates a store with an empty default record. userURL is the
// profile/feedback WebSocket endpoint; fetchTimeout bounds the wait in
// FetchWithFeedback (non-positive selects DefaultFetchTimeout).
func New(repo Repository, userURL string, fetchTimeout time.Duration) *Store {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Store{
		rec:          domain.NewSessionRecord(),
		repo:         repo,
		userURL:      userURL,
		fetchTimeout: fetchTimeout,
	}
}

// Restore loads the persisted record, if any, so session state survives a
// restart. A missing record leaves the defaults in place.
func (s *Store) Restore(ctx context.Context) error {
	rec, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	s.mu.Lock()
	s.rec = *rec
	s.mu.Unlock()
	slog.Info("session record restored", "user_id", rec.UserID)
	return nil
}

// Get returns a copy of the current record.
func (s *Store) Get() domain.SessionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// Merge shallow-merges the patch into the record and persists the result.
// Fields absent from the patch are never removed. Persistence is
// fire-and-forget: a write failure is logged, never propagated.
func (s *Store) Merge(patch domain.SessionPatch) {
	s.mu.Lock()
	s.rec.Apply(patch)
	rec := s.rec
	s.mu.Unlock()

	s.persist(&rec)
}

// Clear resets the record to defaults, purges durable storage, and runs
// registered clear hooks (session-scoped interaction flags).
func (s *Store) Clear() {
	s.mu.Lock()
	s.rec = domain.NewSessionRecord()
	hooks := append([]func(){}, s.clearHooks...)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.repo.Purge(ctx); err != nil {
		slog.Warn("failed to purge session record", "error", err)
	}
	for _, hook := range hooks {
		hook()
	}
	slog.Info("session cleared")
}

// OnClear registers a hook invoked by Clear.
func (s *Store) OnClear(hook func()) {
	s.mu.Lock()
	s.clearHooks = append(s.clearHooks, hook)
	s.mu.Unlock()
}

func (s *Store) persist(rec *domain.SessionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, rec); err != nil {
		slog.Warn("failed to persist session record", "user_id", rec.UserID, "error", err)
	}
}
