package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/models"
)

// HistoryStorage implements the HistoryStorage interface for Badger. Entries
// are stored complete, including model bytes and thumbnails.
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *HistoryStorage) SaveEntry(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("history entry ID is required")
	}
	if err := s.db.Store().Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

func (s *HistoryStorage) GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	if err := s.db.Store().Get(id, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return &entry, nil
}

func (s *HistoryStorage) FindByNameSize(ctx context.Context, name string, size int64) (*models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.Store().Find(&entries, badgerhold.Where("Name").Eq(name).And("Size").Eq(size))
	if err != nil {
		return nil, fmt.Errorf("failed to find history entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, interfaces.ErrEntryNotFound
	}
	return &entries[0], nil
}

func (s *HistoryStorage) TouchEntry(ctx context.Context, id string, timestamp int64) error {
	var entry models.HistoryEntry
	if err := s.db.Store().Get(id, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrEntryNotFound
		}
		return fmt.Errorf("failed to get history entry: %w", err)
	}
	entry.Timestamp = timestamp
	if err := s.db.Store().Upsert(id, &entry); err != nil {
		return fmt.Errorf("failed to update history entry: %w", err)
	}
	return nil
}

func (s *HistoryStorage) ListEntries(ctx context.Context) ([]*models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := s.db.Store().Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	result := make([]*models.HistoryEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}

func (s *HistoryStorage) DeleteEntry(ctx context.Context, id string) (bool, error) {
	if err := s.db.Store().Delete(id, &models.HistoryEntry{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete history entry: %w", err)
	}
	return true, nil
}

func (s *HistoryStorage) DeleteAll(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.HistoryEntry{}, nil); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
