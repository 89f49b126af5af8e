package common

import (
	"github.com/google/uuid"
)

// NewEntryID generates a unique history entry ID with the "hist_" prefix
// Format: hist_<uuid>
func NewEntryID() string {
	return "hist_" + uuid.New().String()
}
