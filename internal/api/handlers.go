package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mattjoyce/incomerelay/internal/journal"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Service:       ServiceName,
		Version:       Version,
		Status:        "running",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Config:        s.config.Configured,
		Rules:         s.config.Rules,
	}
	if s.status != nil {
		resp.Stats = s.status.Snapshot()
	}
	if s.queue != nil {
		resp.Queue = s.queue.Stats()
		resp.Accepting = s.queue.Healthy()
	}
	resp.EventSubscribers = s.events.Subscribers()
	respondJSON(w, http.StatusOK, resp)
}

// handleBatches lists recent journal rows, newest first.
func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	limit := journal.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, journal.MaxLimit)
	}

	entries := []journal.Entry{}
	if s.batches != nil {
		got, err := s.batches.Recent(r.Context(), limit)
		if err != nil {
			s.logger.Error("failed to list batches", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to list batches")
			return
		}
		if got != nil {
			entries = got
		}
	}
	respondJSON(w, http.StatusOK, BatchesResponse{Batches: entries, Count: len(entries)})
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc())
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
