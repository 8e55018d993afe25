package queue

import (
	"context"
	"errors"
)

// Status is the lifecycle state of a background task.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusAbandoned:
		return true
	}
	return false
}

// Task is one unit of background work.
type Task struct {
	ID     string
	Source string
	Run    func(ctx context.Context) error

	// OnFinish, when set, receives Run's result. A panic in Run is
	// delivered here as an error.
	OnFinish func(err error)
}

// Stats is a snapshot of pool activity.
type Stats struct {
	Length    int    `json:"length"`
	Capacity  int    `json:"capacity"`
	Workers   int    `json:"workers"`
	InFlight  int64  `json:"in_flight"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
}

var (
	ErrQueueFull   = errors.New("queue full")
	ErrQueueClosed = errors.New("queue closed")
)
