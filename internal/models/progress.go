package models

// LoadingProgress is a transient snapshot of the byte-reading phase of a
// load. Percentage covers the raw read only, not parse completion; parsing is
// synchronous once bytes are available.
type LoadingProgress struct {
	Loaded     int64   `json:"loaded"`
	Total      int64   `json:"total"`
	Percentage float64 `json:"percentage"` // 0..100
}

// NewLoadingProgress derives a progress snapshot from raw counters. A zero or
// unknown total reports 0 percent rather than dividing by zero.
func NewLoadingProgress(loaded, total int64) LoadingProgress {
	p := LoadingProgress{Loaded: loaded, Total: total}
	if total > 0 {
		p.Percentage = float64(loaded) / float64(total) * 100
		if p.Percentage > 100 {
			p.Percentage = 100
		}
	}
	return p
}
