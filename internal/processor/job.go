package processor

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/incomerelay/internal/dispatch"
)

// Job is one accepted attachment waiting for background processing.
type Job struct {
	ID         string
	BatchID    string
	Filename   string
	Source     string
	Data       []byte
	Digest     string
	AcceptedAt time.Time
}

// NewJob assigns a task id, batch id and content digest to an attachment.
func NewJob(filename, source string, data []byte, acceptedAt time.Time) Job {
	sum := blake3.Sum256(data)
	return Job{
		ID:         uuid.NewString(),
		BatchID:    dispatch.BatchID(acceptedAt),
		Filename:   filename,
		Source:     source,
		Data:       data,
		Digest:     hex.EncodeToString(sum[:]),
		AcceptedAt: acceptedAt.UTC(),
	}
}
