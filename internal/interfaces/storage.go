package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/prism/internal/models"
)

// ErrEntryNotFound is returned when a history entry id has no record in the
// active backend. It is a normal outcome, never a trigger for backend
// fallback.
var ErrEntryNotFound = errors.New("history entry not found")

// HistoryStorage defines the persistence operations a history backend must
// provide. Both the structured (badgerhold) and key-value (bbolt) backends
// implement it; the key-value tier documents lossy behavior on SaveEntry.
type HistoryStorage interface {
	// SaveEntry inserts or replaces an entry by id.
	SaveEntry(ctx context.Context, entry *models.HistoryEntry) error

	// GetEntry retrieves an entry by id, or ErrEntryNotFound.
	GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error)

	// FindByNameSize returns the entry with an exact (name, size) match, or
	// ErrEntryNotFound. Used for deduplication.
	FindByNameSize(ctx context.Context, name string, size int64) (*models.HistoryEntry, error)

	// TouchEntry refreshes an entry's timestamp (move-to-front semantics).
	TouchEntry(ctx context.Context, id string, timestampMs int64) error

	// ListEntries returns all entries ordered most-recent-first.
	ListEntries(ctx context.Context) ([]*models.HistoryEntry, error)

	// DeleteEntry removes an entry by id. Reports whether a record existed.
	DeleteEntry(ctx context.Context, id string) (bool, error)

	// DeleteAll removes every entry.
	DeleteAll(ctx context.Context) error
}

// StorageBackend couples a HistoryStorage implementation with its identity
// and lifecycle.
type StorageBackend interface {
	HistoryStorage

	// Kind identifies the persistence tier.
	Kind() models.BackendKind

	// Close releases the underlying database handle.
	Close() error
}
