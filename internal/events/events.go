// Package events fans batch lifecycle notifications out to live listeners
// and keeps a short replay buffer for clients that reconnect.
package events

import (
	"encoding/json"
	"time"
)

// Batch lifecycle event types.
const (
	TypeBatchAccepted  = "batch.accepted"
	TypeBatchSucceeded = "batch.succeeded"
	TypeBatchFailed    = "batch.failed"
	TypeBatchDuplicate = "batch.duplicate"
)

// Event is one published notification. Data is a single-line JSON object.
type Event struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Batch is the payload carried by batch.* events.
type Batch struct {
	TaskID     string `json:"task_id,omitempty"`
	BatchID    string `json:"batch_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Source     string `json:"source,omitempty"`
	SizeBytes  int    `json:"size_bytes,omitempty"`
	Categories int    `json:"categories,omitempty"`
	DataPoints int    `json:"data_points,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}
