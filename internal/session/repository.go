package session

import (
	"context"

	"github.com/careconnect/referral-client/internal/domain"
)

// Repository defines durable local storage for the session record. One
// record is kept, under a fixed storage key.
type Repository interface {
	// Load retrieves the persisted record, or nil if none exists.
	Load(ctx context.Context) (*domain.SessionRecord, error)

	// Save writes the record, replacing any previous one.
	Save(ctx context.Context, rec *domain.SessionRecord) error

	// Purge removes the persisted record.
	Purge(ctx context.Context) error

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying storage.
	Close() error
}
