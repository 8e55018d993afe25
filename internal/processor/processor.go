// Package processor runs the parse-and-deliver step for accepted attachments
// and records every outcome.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/incomerelay/internal/dispatch"
	"github.com/mattjoyce/incomerelay/internal/events"
	"github.com/mattjoyce/incomerelay/internal/journal"
	"github.com/mattjoyce/incomerelay/internal/log"
	"github.com/mattjoyce/incomerelay/internal/queue"
)

// journalTimeout bounds bookkeeping writes made outside a task context.
const journalTimeout = 5 * time.Second

// Deps are the collaborators of a Processor. Journal and Events may be nil.
type Deps struct {
	Parser  Parser
	Sender  Sender
	Status  StatusRecorder
	Queue   Submitter
	Journal Journal
	Events  Publisher
}

// Processor schedules jobs on the worker pool and executes them.
type Processor struct {
	parser  Parser
	sender  Sender
	status  StatusRecorder
	queue   Submitter
	journal Journal
	events  Publisher
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Processor.
func New(d Deps) *Processor {
	return &Processor{
		parser:  d.Parser,
		sender:  d.Sender,
		status:  d.Status,
		queue:   d.Queue,
		journal: d.Journal,
		events:  d.Events,
		logger:  log.WithComponent("processor"),
		now:     time.Now,
	}
}

type result struct {
	categories int
	dataPoints int
}

// Enqueue records job and hands it to the worker pool without waiting for
// it to run. A rejected job is closed out as failed and the submission
// error is returned.
func (p *Processor) Enqueue(ctx context.Context, job Job) error {
	logger := log.WithBatch(job.BatchID).With("task_id", job.ID, "filename", job.Filename)

	if p.journal != nil {
		err := p.journal.Record(ctx, journal.Entry{
			ID:        job.ID,
			BatchID:   job.BatchID,
			Filename:  job.Filename,
			Source:    job.Source,
			SizeBytes: len(job.Data),
			Digest:    job.Digest,
			CreatedAt: job.AcceptedAt,
		})
		if err != nil {
			logger.Warn("journal record failed", "error", err)
		}
	}

	accepted := events.Batch{
		TaskID:    job.ID,
		BatchID:   job.BatchID,
		Filename:  job.Filename,
		Source:    job.Source,
		SizeBytes: len(job.Data),
	}
	p.publish(events.TypeBatchAccepted, accepted)

	if err := p.queue.Submit(p.task(job)); err != nil {
		msg := fmt.Sprintf("not scheduled: %v", err)
		logger.Warn("job not scheduled", "error", err)
		p.complete(job.ID, journal.Outcome{Status: queue.StatusFailed, Error: msg})
		accepted.Error = msg
		p.publish(events.TypeBatchFailed, accepted)
		return err
	}

	logger.Info("job scheduled", "source", job.Source, "size_bytes", len(job.Data), "digest", job.Digest)
	return nil
}

// task binds job to the pool. Run and OnFinish execute sequentially on the
// same worker, so res needs no locking.
func (p *Processor) task(job Job) queue.Task {
	var (
		res   result
		start time.Time
	)
	return queue.Task{
		ID:     job.ID,
		Source: job.Source,
		Run: func(ctx context.Context) error {
			start = p.now()
			var err error
			res, err = p.process(ctx, job)
			return err
		},
		OnFinish: func(err error) {
			p.finish(job, res, err, start)
		},
	}
}

// process parses job and delivers the resulting batch.
func (p *Processor) process(ctx context.Context, job Job) (result, error) {
	if p.journal != nil {
		if err := p.journal.Start(ctx, job.ID); err != nil {
			p.logger.Warn("journal start failed", "task_id", job.ID, "error", err)
		}
	}

	rep, err := p.parser.Parse(job.Data, job.AcceptedAt)
	if err != nil {
		return result{}, err
	}
	res := result{categories: len(rep.Categories), dataPoints: len(rep.MonthlyData)}

	if err := p.sender.Send(ctx, dispatch.NewBatch(job.BatchID, job.Source, rep)); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Processor) finish(job Job, res result, err error, start time.Time) {
	logger := log.WithBatch(job.BatchID).With("task_id", job.ID, "filename", job.Filename)
	var duration int64
	if !start.IsZero() {
		duration = p.now().Sub(start).Milliseconds()
	}

	payload := events.Batch{
		TaskID:     job.ID,
		BatchID:    job.BatchID,
		Filename:   job.Filename,
		Source:     job.Source,
		Categories: res.categories,
		DataPoints: res.dataPoints,
		DurationMS: duration,
	}

	if err != nil {
		msg := err.Error()
		p.status.RecordFailure(msg)
		p.complete(job.ID, journal.Outcome{
			Status:     queue.StatusFailed,
			Error:      msg,
			Categories: res.categories,
			DataPoints: res.dataPoints,
		})
		payload.Error = msg
		p.publish(events.TypeBatchFailed, payload)
		logger.Error("batch failed", "error", err, "duration_ms", duration)
		return
	}

	p.status.RecordSuccess(job.Filename, p.now())
	p.complete(job.ID, journal.Outcome{
		Status:     queue.StatusSucceeded,
		Categories: res.categories,
		DataPoints: res.dataPoints,
	})
	p.publish(events.TypeBatchSucceeded, payload)
	logger.Info("batch succeeded",
		"categories", res.categories,
		"data_points", res.dataPoints,
		"duration_ms", duration,
	)
}

func (p *Processor) complete(id string, o journal.Outcome) {
	if p.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := p.journal.Complete(ctx, id, o); err != nil {
		p.logger.Warn("journal complete failed", "task_id", id, "error", err)
	}
}

func (p *Processor) publish(eventType string, data events.Batch) {
	if p.events != nil {
		p.events.Publish(eventType, data)
	}
}
