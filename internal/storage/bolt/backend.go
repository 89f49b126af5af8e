package bolt

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/models"
)

// Backend bundles the bbolt connection and its history storage behind the
// StorageBackend interface.
type Backend struct {
	interfaces.HistoryStorage
	db *BoltDB
}

// NewBackend opens the bbolt database and wires the history storage.
func NewBackend(logger arbor.ILogger, config *common.BoltConfig) (*Backend, error) {
	db, err := NewBoltDB(logger, config)
	if err != nil {
		return nil, err
	}
	return &Backend{
		HistoryStorage: NewHistoryStorage(db, logger),
		db:             db,
	}, nil
}

func (b *Backend) Kind() models.BackendKind {
	return models.BackendKeyValue
}

func (b *Backend) Close() error {
	return b.db.Close()
}
