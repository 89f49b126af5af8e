package models

// BackendKind identifies which persistence tier is serving history
// operations. Resolution is one-way: once a structured-backend failure forces
// the key-value tier, the process never returns to the structured tier.
type BackendKind string

const (
	// BackendStructured is the badgerhold-backed primary store. It holds the
	// full record including raw model bytes and the thumbnail.
	BackendStructured BackendKind = "structured"
	// BackendKeyValue is the bbolt-backed fallback store. It keeps light
	// metadata only; Data and Thumbnail are dropped on save.
	BackendKeyValue BackendKind = "keyvalue"
)

// HistoryEntry is one persisted record of a previously loaded model. The
// entry owns its byte buffer independently of any live asset so history can
// outlive the object that created it.
type HistoryEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Data      []byte `json:"data,omitempty"`
	Format    string `json:"format"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds, refreshed on duplicate re-load
	Size      int64  `json:"size"`      // original byte size, stable across backends
	Thumbnail string `json:"thumbnail,omitempty"`
}

// HistoryStats summarizes the state of the history store.
type HistoryStats struct {
	Entries    int         `json:"entries"`
	TotalBytes int64       `json:"total_bytes"`
	Backend    BackendKind `json:"backend"`
}
