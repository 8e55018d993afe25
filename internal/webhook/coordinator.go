package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mattjoyce/incomerelay/internal/dispatch"
	"github.com/mattjoyce/incomerelay/internal/events"
	"github.com/mattjoyce/incomerelay/internal/log"
	"github.com/mattjoyce/incomerelay/internal/processor"
	"github.com/mattjoyce/incomerelay/internal/queue"
)

// formMemory is how much of a multipart body is held in memory before
// spilling parts to temporary files.
const formMemory = 8 << 20

// Coordinator serves the inbound webhook and direct upload endpoints.
type Coordinator struct {
	verifier    *Verifier
	replay      *ReplayGuard
	scheduler   Scheduler
	events      processor.Publisher
	maxBodySize int64
	logger      *slog.Logger
	now         func() time.Time
}

// NewCoordinator wires the handlers. A non-positive maxBodySize uses
// DefaultMaxBodySize; a nil replay guard disables replay protection.
func NewCoordinator(v *Verifier, replay *ReplayGuard, s Scheduler, maxBodySize int64) *Coordinator {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if replay == nil {
		replay = NewReplayGuard(0)
	}
	return &Coordinator{
		verifier:    v,
		replay:      replay,
		scheduler:   s,
		maxBodySize: maxBodySize,
		logger:      log.WithComponent("webhook"),
		now:         time.Now,
	}
}

// SetPublisher routes batch.duplicate notifications to p.
func (c *Coordinator) SetPublisher(p processor.Publisher) {
	c.events = p
}

// HandleInboundWebhook serves POST /webhook/mailgun.
func (c *Coordinator) HandleInboundWebhook(w http.ResponseWriter, r *http.Request) {
	if !c.parseForm(w, r) {
		return
	}

	token := r.PostFormValue("token")
	timestamp := r.PostFormValue("timestamp")
	signature := r.PostFormValue("signature")

	if !c.verifier.Verify(token, timestamp, signature) {
		c.logger.Warn("mailgun signature rejected",
			"configured", c.verifier.Configured(),
			"has_token", token != "",
			"has_timestamp", timestamp != "",
			"has_signature", signature != "",
		)
		c.respondError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}
	if !fresh(timestamp, c.now(), c.replay.Window()) {
		c.logger.Warn("mailgun timestamp outside replay window", "timestamp", timestamp)
		c.respondError(w, http.StatusUnauthorized, "Stale signature")
		return
	}
	if !c.replay.Claim(token) {
		c.logger.Info("duplicate mailgun delivery ignored")
		if c.events != nil {
			c.events.Publish(events.TypeBatchDuplicate, events.Batch{Source: dispatch.SourceMailgun})
		}
		c.respondJSON(w, http.StatusOK, AckResponse{
			Status:    statusDuplicate,
			Message:   messageDuplicate,
			Timestamp: c.now().UTC().Format(time.RFC3339),
		})
		return
	}

	fh, err := selectCSV(r.MultipartForm)
	if err != nil {
		c.replay.Release(token)
		c.logger.Warn("no CSV attachment in mailgun webhook")
		c.respondError(w, http.StatusBadRequest, "No CSV attachment found")
		return
	}

	data, err := readAttachment(fh)
	if err != nil {
		c.replay.Release(token)
		c.logger.Error("failed to read attachment", "filename", fh.Filename, "error", err)
		c.respondError(w, http.StatusInternalServerError, "failed to read attachment")
		return
	}

	if !c.schedule(w, r, fh.Filename, dispatch.SourceMailgun, data) {
		c.replay.Release(token)
	}
}

// HandleDirectUpload serves POST /ingest-income-statement. It skips
// signature checks.
func (c *Coordinator) HandleDirectUpload(w http.ResponseWriter, r *http.Request) {
	if !c.parseForm(w, r) {
		return
	}

	fh := fileField(r, "file")
	if fh == nil {
		c.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}

	data, err := readAttachment(fh)
	if err != nil {
		c.logger.Error("failed to read upload", "filename", fh.Filename, "error", err)
		c.respondError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	c.schedule(w, r, fh.Filename, dispatch.SourceDirectUpload, data)
}

// parseForm applies the body limit and decodes multipart or urlencoded
// forms. It writes the error response itself and reports whether to go on.
func (c *Coordinator) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxBodySize)

	err := r.ParseMultipartForm(formMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		c.logger.Warn("request body too large", "limit", c.maxBodySize)
		c.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return false
	}
	c.logger.Warn("malformed form body", "error", err)
	c.respondError(w, http.StatusBadRequest, "malformed form body")
	return false
}

// schedule hands the attachment off and writes the acknowledgement. It
// reports whether the job was accepted.
func (c *Coordinator) schedule(w http.ResponseWriter, r *http.Request, filename, source string, data []byte) bool {
	now := c.now()
	job := processor.NewJob(filename, source, data, now)

	if err := c.scheduler.Enqueue(r.Context(), job); err != nil {
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			c.respondError(w, http.StatusServiceUnavailable, "processing queue unavailable")
			return false
		}
		c.logger.Error("failed to schedule job", "batch_id", job.BatchID, "error", err)
		c.respondError(w, http.StatusInternalServerError, "failed to schedule processing")
		return false
	}

	c.logger.Info("attachment accepted",
		"batch_id", job.BatchID,
		"task_id", job.ID,
		"filename", filename,
		"size_bytes", len(data),
		"source", source,
		"ack_ms", time.Since(now).Milliseconds(),
	)
	size := len(data)
	c.respondJSON(w, http.StatusOK, AckResponse{
		Status:    statusSuccess,
		Message:   messageQueued,
		Filename:  filename,
		SizeBytes: &size,
		BatchID:   job.BatchID,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
	return true
}

func fileField(r *http.Request, name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[name]
	if len(headers) == 0 {
		return nil
	}
	return headers[0]
}

func (c *Coordinator) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Debug("write response failed", "error", err)
	}
}

func (c *Coordinator) respondError(w http.ResponseWriter, status int, message string) {
	c.respondJSON(w, status, ErrorResponse{Error: message})
}
