// Package bolt provides the key-value fallback storage backend. It stores
// history metadata only: model bytes and thumbnails are deliberately dropped
// to keep the fallback small and robust.
package bolt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"go.etcd.io/bbolt"

	"github.com/ternarybob/prism/internal/common"
)

const historyBucket = "history_entries"

// BoltDB manages the bbolt database connection
type BoltDB struct {
	db     *bbolt.DB
	logger arbor.ILogger
	config *common.BoltConfig
}

// NewBoltDB opens the bbolt database file and ensures the history bucket
// exists.
func NewBoltDB(logger arbor.ILogger, config *common.BoltConfig) (*BoltDB, error) {
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Opening bbolt database connection")

	db, err := bbolt.Open(config.Path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(historyBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("bbolt database initialized")

	return &BoltDB{
		db:     db,
		logger: logger,
		config: config,
	}, nil
}

// DB returns the underlying bbolt database
func (b *BoltDB) DB() *bbolt.DB {
	return b.db
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
