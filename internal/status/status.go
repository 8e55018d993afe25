// Package status holds the process-wide processing outcome record.
package status

import (
	"sync"
	"time"
)

// Stats is a point-in-time copy of the tracker.
type Stats struct {
	LastProcessed  *time.Time `json:"last_processed"`
	TotalProcessed int        `json:"total_processed"`
	LastError      *string    `json:"last_error"`
	LastFilename   *string    `json:"last_filename"`
}

// Tracker records background task outcomes. All methods are safe for
// concurrent use; each update is a single critical section.
type Tracker struct {
	mu    sync.RWMutex
	stats Stats
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// RecordSuccess notes a delivered batch and clears the last error.
func (t *Tracker) RecordSuccess(filename string, at time.Time) {
	at = at.UTC()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.LastProcessed = &at
	t.stats.TotalProcessed++
	t.stats.LastFilename = &filename
	t.stats.LastError = nil
}

// RecordFailure notes a failed task. The processed count is unchanged.
func (t *Tracker) RecordFailure(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.LastError = &msg
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.stats
	if s.LastProcessed != nil {
		v := *s.LastProcessed
		s.LastProcessed = &v
	}
	if s.LastError != nil {
		v := *s.LastError
		s.LastError = &v
	}
	if s.LastFilename != nil {
		v := *s.LastFilename
		s.LastFilename = &v
	}
	return s
}
