package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"go.etcd.io/bbolt"

	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/models"
)

// HistoryStorage implements the HistoryStorage interface over bbolt. Entries
// are stored as JSON metadata under their ID; Data and Thumbnail are cleared
// before persisting because the fallback keeps metadata only.
type HistoryStorage struct {
	db     *BoltDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new HistoryStorage instance
func NewHistoryStorage(db *BoltDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *HistoryStorage) SaveEntry(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("history entry ID is required")
	}

	stored := *entry
	stored.Data = nil
	stored.Thumbnail = ""

	payload, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}

	err = s.db.DB().Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(historyBucket)).Put([]byte(entry.ID), payload)
	})
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

func (s *HistoryStorage) GetEntry(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var entry *models.HistoryEntry
	err := s.db.DB().View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(historyBucket)).Get([]byte(id))
		if raw == nil {
			return interfaces.ErrEntryNotFound
		}
		entry = &models.HistoryEntry{}
		return json.Unmarshal(raw, entry)
	})
	if err != nil {
		if err == interfaces.ErrEntryNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return entry, nil
}

func (s *HistoryStorage) FindByNameSize(ctx context.Context, name string, size int64) (*models.HistoryEntry, error) {
	var found *models.HistoryEntry
	err := s.db.DB().View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(historyBucket)).ForEach(func(_, raw []byte) error {
			var entry models.HistoryEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return err
			}
			if entry.Name == name && entry.Size == size {
				found = &entry
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find history entry: %w", err)
	}
	if found == nil {
		return nil, interfaces.ErrEntryNotFound
	}
	return found, nil
}

func (s *HistoryStorage) TouchEntry(ctx context.Context, id string, timestamp int64) error {
	err := s.db.DB().Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucket))
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return interfaces.ErrEntryNotFound
		}
		var entry models.HistoryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		entry.Timestamp = timestamp
		payload, err := json.Marshal(&entry)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), payload)
	})
	if err != nil {
		if err == interfaces.ErrEntryNotFound {
			return err
		}
		return fmt.Errorf("failed to update history entry: %w", err)
	}
	return nil
}

func (s *HistoryStorage) ListEntries(ctx context.Context) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	err := s.db.DB().View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(historyBucket)).ForEach(func(_, raw []byte) error {
			var entry models.HistoryEntry
			if err := json.Unmarshal(raw, &entry); err != nil {
				return err
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

func (s *HistoryStorage) DeleteEntry(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.db.DB().Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(historyBucket))
		if bucket.Get([]byte(id)) == nil {
			return nil
		}
		deleted = true
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete history entry: %w", err)
	}
	return deleted, nil
}

func (s *HistoryStorage) DeleteAll(ctx context.Context) error {
	err := s.db.DB().Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(historyBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(historyBucket))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
