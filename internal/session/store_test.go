package session

import (
	"context"
	"sync"
	"testing"

	"github.com/careconnect/referral-client/internal/domain"
)

// fakeRepo is an in-memory Repository for store tests.
type fakeRepo struct {
	mu     sync.Mutex
	rec    *domain.SessionRecord
	saves  int
	purges int
}

func (f *fakeRepo) Load(ctx context.Context) (*domain.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil {
		return nil, nil
	}
	rec := *f.rec
	return &rec, nil
}

func (f *fakeRepo) Save(ctx context.Context, rec *domain.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *rec
	f.rec = &saved
	f.saves++
	return nil
}

func (f *fakeRepo) Purge(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec = nil
	f.purges++
	return nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

func strptr(s string) *string { return &s }

func TestStoreMergeNeverRemoves(t *testing.T) {
	store := New(&fakeRepo{}, "", 0)

	store.Merge(domain.SessionPatch{UserID: strptr("u1"), Zipcode: strptr("61701")})
	store.Merge(domain.SessionPatch{Phone: strptr("555-0100")})

	rec := store.Get()
	if rec.UserID != "u1" || rec.Zipcode != "61701" || rec.Phone != "555-0100" {
		t.Errorf("merge dropped a field: %+v", rec)
	}
}

func TestStoreMergeLastWriterWins(t *testing.T) {
	store := New(&fakeRepo{}, "", 0)

	store.Merge(domain.SessionPatch{Zipcode: strptr("61701")})
	store.Merge(domain.SessionPatch{Zipcode: strptr("61761")})

	if rec := store.Get(); rec.Zipcode != "61761" {
		t.Errorf("expected last write to win, got %q", rec.Zipcode)
	}
}

func TestStoreMergePersists(t *testing.T) {
	repo := &fakeRepo{}
	store := New(repo, "", 0)

	store.Merge(domain.SessionPatch{UserID: strptr("u1")})

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.saves != 1 || repo.rec == nil || repo.rec.UserID != "u1" {
		t.Errorf("merge did not persist: saves=%d rec=%+v", repo.saves, repo.rec)
	}
}

func TestStoreClearResetsAndRunsHooks(t *testing.T) {
	repo := &fakeRepo{}
	store := New(repo, "", 0)
	store.Merge(domain.SessionPatch{UserID: strptr("u1"), Zipcode: strptr("61701")})

	hookRan := false
	store.OnClear(func() { hookRan = true })
	store.Clear()

	rec := store.Get()
	if rec.UserID != "" || rec.Zipcode != "" || rec.Language != "english" {
		t.Errorf("clear did not reset record: %+v", rec)
	}
	if !hookRan {
		t.Error("clear hook did not run")
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.purges != 1 || repo.rec != nil {
		t.Errorf("clear did not purge storage: purges=%d", repo.purges)
	}
}

func TestStoreRestore(t *testing.T) {
	repo := &fakeRepo{rec: &domain.SessionRecord{UserID: "persisted", Language: "spanish"}}
	store := New(repo, "", 0)

	if err := store.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	rec := store.Get()
	if rec.UserID != "persisted" || rec.Language != "spanish" {
		t.Errorf("restore did not adopt persisted record: %+v", rec)
	}
}

func TestStoreRestoreMissingKeepsDefaults(t *testing.T) {
	store := New(&fakeRepo{}, "", 0)

	if err := store.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	rec := store.Get()
	if rec.Language != "english" || rec.UserID != "" {
		t.Errorf("defaults disturbed: %+v", rec)
	}
}
