package processor

import (
	"context"
	"time"

	"github.com/mattjoyce/incomerelay/internal/dispatch"
	"github.com/mattjoyce/incomerelay/internal/journal"
	"github.com/mattjoyce/incomerelay/internal/queue"
	"github.com/mattjoyce/incomerelay/internal/report"
)

//go:generate mockgen -destination=mocks/mock_processor.go -package=mocks github.com/mattjoyce/incomerelay/internal/processor Parser,Sender,StatusRecorder,Journal,Publisher,Submitter

// Parser turns attachment bytes into a report.
type Parser interface {
	Parse(data []byte, uploadedAt time.Time) (*report.Report, error)
}

// Sender makes the single downstream delivery attempt.
type Sender interface {
	Send(ctx context.Context, b dispatch.Batch) error
}

// StatusRecorder receives task outcomes for /status.
type StatusRecorder interface {
	RecordSuccess(filename string, at time.Time)
	RecordFailure(msg string)
}

// Journal persists the task lifecycle.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	Start(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, o journal.Outcome) error
}

// Publisher broadcasts lifecycle events.
type Publisher interface {
	Publish(eventType string, data any)
}

// Submitter hands tasks to the worker pool.
type Submitter interface {
	Submit(t queue.Task) error
}
