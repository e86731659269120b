package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/careconnect/referral-client/internal/domain"
	"github.com/careconnect/referral-client/internal/shared"
)

// storageKey is the fixed key under which the single session record lives.
const storageKey = "session"

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed repository at dbPath.
func NewSQLite(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS session_records (
		storage_key TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'english',
		zipcode TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		children_birth_dates_json TEXT NOT NULL DEFAULT '[]',
		expected_due_date TEXT NOT NULL DEFAULT '',
		referrals_json TEXT NOT NULL DEFAULT '[]',
		feedback_prompts_json TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load retrieves the persisted session record, or nil if none exists.
func (r *SQLiteRepository) Load(ctx context.Context) (*domain.SessionRecord, error) {
	query := `
		SELECT user_id, username, first_name, last_name, language, zipcode,
		       phone, email, children_birth_dates_json, expected_due_date,
		       referrals_json, feedback_prompts_json
		FROM session_records WHERE storage_key = ?`

	row := r.db.QueryRowContext(ctx, query, storageKey)

	var rec domain.SessionRecord
	var birthDatesJSON, referralsJSON, promptsJSON string

	err := row.Scan(
		&rec.UserID, &rec.Username, &rec.FirstName, &rec.LastName,
		&rec.Language, &rec.Zipcode, &rec.Phone, &rec.Email,
		&birthDatesJSON, &rec.ExpectedDueDate,
		&referralsJSON, &promptsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session record: %w", err)
	}

	if err := json.Unmarshal([]byte(birthDatesJSON), &rec.ChildrenBirthDates); err != nil {
		return nil, fmt.Errorf("decode children_birth_dates: %w", err)
	}
	if err := json.Unmarshal([]byte(referralsJSON), &rec.Referrals); err != nil {
		return nil, fmt.Errorf("decode referrals: %w", err)
	}
	if err := json.Unmarshal([]byte(promptsJSON), &rec.FeedbackPrompts); err != nil {
		return nil, fmt.Errorf("decode feedback prompts: %w", err)
	}

	return &rec, nil
}

// Save writes the session record under the fixed storage key. SQLITE_BUSY
// conflicts are retried with exponential backoff.
func (r *SQLiteRepository) Save(ctx context.Context, rec *domain.SessionRecord) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = r.saveOnce(ctx, rec)
		if err == nil {
			return nil
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("session save hit SQLITE_BUSY, retrying", "attempt", i+1, "delay", delay)
			time.Sleep(delay)
			continue
		}
		break
	}
	return fmt.Errorf("save session record: %w", err)
}

func (r *SQLiteRepository) saveOnce(ctx context.Context, rec *domain.SessionRecord) error {
	birthDatesJSON, err := json.Marshal(rec.ChildrenBirthDates)
	if err != nil {
		return fmt.Errorf("encode children_birth_dates: %w", err)
	}
	referralsJSON, err := json.Marshal(rec.Referrals)
	if err != nil {
		return fmt.Errorf("encode referrals: %w", err)
	}
	promptsJSON, err := json.Marshal(rec.FeedbackPrompts)
	if err != nil {
		return fmt.Errorf("encode feedback prompts: %w", err)
	}

	query := `
	INSERT INTO session_records (
		storage_key, user_id, username, first_name, last_name, language,
		zipcode, phone, email, children_birth_dates_json, expected_due_date,
		referrals_json, feedback_prompts_json, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(storage_key) DO UPDATE SET
		user_id = excluded.user_id,
		username = excluded.username,
		first_name = excluded.first_name,
		last_name = excluded.last_name,
		language = excluded.language,
		zipcode = excluded.zipcode,
		phone = excluded.phone,
		email = excluded.email,
		children_birth_dates_json = excluded.children_birth_dates_json,
		expected_due_date = excluded.expected_due_date,
		referrals_json = excluded.referrals_json,
		feedback_prompts_json = excluded.feedback_prompts_json,
		updated_at = excluded.updated_at`

	now := time.Now().Unix()
	_, err = r.db.ExecContext(ctx, query,
		storageKey, rec.UserID, rec.Username, rec.FirstName, rec.LastName,
		rec.Language, rec.Zipcode, rec.Phone, rec.Email,
		string(birthDatesJSON), rec.ExpectedDueDate,
		string(referralsJSON), string(promptsJSON),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert session record: %w", err)
	}
	return nil
}

// Purge removes the persisted session record.
func (r *SQLiteRepository) Purge(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_records WHERE storage_key = ?`, storageKey); err != nil {
		return fmt.Errorf("purge session record: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
