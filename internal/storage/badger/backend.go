package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/models"
)

// Backend bundles the Badger connection and its history storage behind the
// StorageBackend interface.
type Backend struct {
	interfaces.HistoryStorage
	db *BadgerDB
}

// NewBackend opens the Badger database and wires the history storage.
func NewBackend(logger arbor.ILogger, config *common.BadgerConfig) (*Backend, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}
	return &Backend{
		HistoryStorage: NewHistoryStorage(db, logger),
		db:             db,
	}, nil
}

func (b *Backend) Kind() models.BackendKind {
	return models.BackendStructured
}

func (b *Backend) Close() error {
	return b.db.Close()
}
