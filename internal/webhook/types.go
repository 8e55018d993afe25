package webhook

import (
	"context"

	"github.com/mattjoyce/incomerelay/internal/processor"
)

// Scheduler accepts jobs for background processing without blocking.
type Scheduler interface {
	Enqueue(ctx context.Context, job processor.Job) error
}

// AckResponse is returned once an attachment has been scheduled. SizeBytes
// is nil only on duplicate acknowledgements, so an empty file reports 0.
type AckResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Filename  string `json:"filename,omitempty"`
	SizeBytes *int   `json:"size_bytes,omitempty"`
	BatchID   string `json:"batch_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the JSON body for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	statusSuccess   = "success"
	statusDuplicate = "duplicate"

	messageQueued    = "Income statement CSV received and queued for processing"
	messageDuplicate = "Webhook already received"
)

// DefaultMaxBodySize caps inbound requests when no limit is configured.
const DefaultMaxBodySize = 25 << 20
