package api

import (
	"github.com/mattjoyce/incomerelay/internal/config"
	"github.com/mattjoyce/incomerelay/internal/journal"
	"github.com/mattjoyce/incomerelay/internal/queue"
	"github.com/mattjoyce/incomerelay/internal/status"
)

// RulesInfo identifies the account-type rule table in use.
type RulesInfo struct {
	Version int    `json:"version"`
	Digest  string `json:"digest"`
}

// HealthResponse is the body of GET /.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Service       string            `json:"service"`
	Version       string            `json:"version"`
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Config        config.Configured `json:"config"`
	Stats         status.Stats      `json:"stats"`
	Queue         queue.Stats       `json:"queue"`
	Rules         RulesInfo         `json:"rules"`

	// Accepting is false when uploads would be refused with 503.
	Accepting        bool `json:"accepting"`
	EventSubscribers int  `json:"event_subscribers"`
}

// BatchesResponse is the body of GET /batches.
type BatchesResponse struct {
	Batches []journal.Entry `json:"batches"`
	Count   int             `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
