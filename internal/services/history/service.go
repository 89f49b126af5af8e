// Package history maintains the recently-viewed model list: capacity-bounded,
// deduplicated on name and size, persisted through whichever storage backend
// is currently healthy.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/models"
)

// DefaultCapacity bounds the history list when no capacity is configured.
const DefaultCapacity = 20

// Service implements history bookkeeping over a storage manager.
type Service struct {
	storage  *storageRunner
	thumbs   interfaces.ThumbnailCapturer
	capacity int
	logger   arbor.ILogger
	now      func() time.Time
	newID    func() string
}

// storageRunner is the slice of the storage manager the service needs.
type storageRunner struct {
	do   func(ctx context.Context, op func(interfaces.HistoryStorage) error) error
	kind func() models.BackendKind
}

// Runner abstracts the storage manager for the service.
type Runner interface {
	Do(ctx context.Context, op func(interfaces.HistoryStorage) error) error
	Kind() models.BackendKind
}

// NewService creates a history service with the given capacity. Zero or
// negative capacity selects DefaultCapacity.
func NewService(runner Runner, thumbs interfaces.ThumbnailCapturer, capacity int, logger arbor.ILogger) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		storage: &storageRunner{
			do:   runner.Do,
			kind: runner.Kind,
		},
		thumbs:   thumbs,
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
		newID:    common.NewEntryID,
	}
}

// Add records a viewed model. A model with the same name and size as an
// existing entry refreshes that entry's timestamp instead of inserting a
// duplicate. New entries get a generated ID and a thumbnail, and the oldest
// entries beyond capacity are evicted.
func (s *Service) Add(ctx context.Context, asset *models.Asset, name string, data []byte) (*models.HistoryEntry, error) {
	size := int64(len(data))
	now := s.now().UnixMilli()

	var existing *models.HistoryEntry
	err := s.storage.do(ctx, func(store interfaces.HistoryStorage) error {
		found, err := store.FindByNameSize(ctx, name, size)
		if err != nil {
			if err == interfaces.ErrEntryNotFound {
				return nil
			}
			return err
		}
		existing = found
		return store.TouchEntry(ctx, found.ID, now)
	})
	if err != nil {
		return nil, &models.StorageOperationError{Op: "add", Err: err}
	}
	if existing != nil {
		existing.Timestamp = now
		s.logger.Debug().Str("id", existing.ID).Str("name", name).Msg("Refreshed history entry")
		return existing, nil
	}

	entry := &models.HistoryEntry{
		ID:        s.newID(),
		Name:      name,
		Data:      data,
		Format:    "",
		Timestamp: now,
		Size:      size,
	}
	if asset != nil {
		entry.Format = asset.Format
	}
	if s.thumbs != nil && asset != nil {
		entry.Thumbnail = s.thumbs.Capture(asset)
	}

	err = s.storage.do(ctx, func(store interfaces.HistoryStorage) error {
		return store.SaveEntry(ctx, entry)
	})
	if err != nil {
		return nil, &models.StorageOperationError{Op: "add", Err: err}
	}

	if err := s.evict(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("History eviction failed")
	}

	s.logger.Info().Str("id", entry.ID).Str("name", name).Msg("Recorded history entry")
	return entry, nil
}

// List returns all entries, most recent first.
func (s *Service) List(ctx context.Context) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	err := s.storage.do(ctx, func(store interfaces.HistoryStorage) error {
		var err error
		entries, err = store.ListEntries(ctx)
		return err
	})
	if err != nil {
		return nil, &models.StorageOperationError{Op: "list", Err: err}
	}
	return entries, nil
}

// Get returns the entry with the given ID, or ErrEntryNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var entry *models.HistoryEntry
	err := s.storage.do(ctx, func(store interfaces.HistoryStorage) error {
		var err error
		entry, err = store.GetEntry(ctx, id)
		return err
	})
	if err != nil {
		if err == interfaces.ErrEntryNotFound {
			return nil, err
		}
		return nil, &models.StorageOperationError{Op: "get", Err: err}
	}
	return entry, nil
}

// Remove deletes the entry with the given ID. Removing an absent ID is not
// an error; the bool reports whether anything was deleted.
func (s *Service) Remove(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.storage.do(ctx, func(store interfaces.HistoryStorage) error {
		var err error
		deleted, err = store.DeleteEntry(ctx, id)
		return err
	})
	if err != nil {
		return false, &models.StorageOperationError{Op: "remove", Err: err}
	}
	return deleted, nil
}

// Clear deletes every entry.
func (s *Service) Clear(ctx context.Context) error {
	err := s.storage.do(ctx, func(store interfaces.HistoryStorage) error {
		return store.DeleteAll(ctx)
	})
	if err != nil {
		return &models.StorageOperationError{Op: "clear", Err: err}
	}
	return nil
}

// Stats summarizes the stored history.
func (s *Service) Stats(ctx context.Context) (*models.HistoryStats, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.HistoryStats{
		Entries: len(entries),
		Backend: s.storage.kind(),
	}
	for _, entry := range entries {
		stats.TotalBytes += entry.Size
	}
	return stats, nil
}

// evict removes the oldest entries until the list fits the capacity.
func (s *Service) evict(ctx context.Context) error {
	return s.storage.do(ctx, func(store interfaces.HistoryStorage) error {
		entries, err := store.ListEntries(ctx)
		if err != nil {
			return err
		}
		for i := s.capacity; i < len(entries); i++ {
			if _, err := store.DeleteEntry(ctx, entries[i].ID); err != nil {
				return fmt.Errorf("failed to evict entry %s: %w", entries[i].ID, err)
			}
		}
		return nil
	})
}
