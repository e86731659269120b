package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/careconnect/referral-client/internal/domain"
)

func newTestRepo(t *testing.T, dbPath string) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteLoadEmpty(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "session.db"))

	rec, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record from empty store, got %+v", rec)
	}
}

func TestSQLiteSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	in := domain.SessionRecord{
		UserID:             "u1",
		Username:           "maria",
		FirstName:          "Maria",
		Language:           "spanish",
		Zipcode:            "61701",
		Phone:              "555-0100",
		Email:              "maria@example.org",
		ChildrenBirthDates: []string{"2021-03-14"},
		ExpectedDueDate:    "2026-12-01",
		Referrals: []domain.Referral{
			{ReferralID: "r1", Agency: "Westside Food Pantry", ServiceCategory: "food", Zipcode: "61701"},
		},
		FeedbackPrompts: []domain.FeedbackPrompt{
			{ReferralID: "r1", Question: "Did you contact Westside Food Pantry?", Agency: "Westside Food Pantry"},
		},
	}
	if err := repo.Save(ctx, &in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out == nil {
		t.Fatal("expected a record after save")
	}
	if out.UserID != in.UserID || out.Language != in.Language || out.Email != in.Email {
		t.Errorf("scalar fields differ: %+v", out)
	}
	if len(out.ChildrenBirthDates) != 1 || out.ChildrenBirthDates[0] != "2021-03-14" {
		t.Errorf("birth dates differ: %+v", out.ChildrenBirthDates)
	}
	if len(out.Referrals) != 1 || out.Referrals[0].Agency != "Westside Food Pantry" {
		t.Errorf("referrals differ: %+v", out.Referrals)
	}
	if len(out.FeedbackPrompts) != 1 || out.FeedbackPrompts[0].ReferralID != "r1" {
		t.Errorf("prompts differ: %+v", out.FeedbackPrompts)
	}
}

func TestSQLiteSaveOverwrites(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	first := domain.NewSessionRecord()
	first.UserID = "u1"
	first.Zipcode = "61701"
	if err := repo.Save(ctx, &first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := first
	second.Zipcode = "61761"
	if err := repo.Save(ctx, &second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Zipcode != "61761" {
		t.Errorf("expected upsert to keep latest value, got %q", out.Zipcode)
	}
}

func TestSQLitePurge(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	rec := domain.NewSessionRecord()
	rec.UserID = "u1"
	if err := repo.Save(ctx, &rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Purge(ctx); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil after purge, got %+v", out)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	repo, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	rec := domain.NewSessionRecord()
	rec.UserID = "u1"
	rec.Language = "polish"
	if err := repo.Save(ctx, &rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := newTestRepo(t, dbPath)
	out, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if out == nil || out.UserID != "u1" || out.Language != "polish" {
		t.Errorf("record did not survive reopen: %+v", out)
	}
}
