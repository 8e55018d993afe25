package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/incomerelay/internal/events"
)

const (
	keepAliveInterval = 15 * time.Second
	// reconnectDelayMS is sent as the stream's retry hint.
	reconnectDelayMS = 3000
)

// eventFilter selects event types; an empty filter passes everything.
type eventFilter map[string]bool

func parseEventFilter(raw string) eventFilter {
	f := eventFilter{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			f[t] = true
		}
	}
	return f
}

func (f eventFilter) match(ev events.Event) bool {
	return len(f) == 0 || f[ev.Type]
}

// handleEvents streams batch lifecycle events. Last-Event-ID replays what
// the hub still holds; ?types=a,b limits the stream to those types.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	filter := parseEventFilter(r.URL.Query().Get("types"))
	cursor := parseLastEventID(r.Header.Get("Last-Event-ID"))

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// Subscribe before replaying so nothing published in between is lost.
	live, cancel := s.events.Subscribe()
	defer cancel()

	emit := func(ev events.Event) error {
		if ev.ID <= cursor {
			return nil
		}
		cursor = ev.ID
		if !filter.match(ev) {
			return nil
		}
		return writeSSE(w, ev)
	}

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", reconnectDelayMS); err != nil {
		return
	}
	for _, ev := range s.events.Since(cursor) {
		if err := emit(ev); err != nil {
			return
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-live:
			if !open {
				return
			}
			err = emit(ev)
		case <-ticker.C:
			_, err = io.WriteString(w, ": keep-alive\n\n")
		}
		if err != nil {
			return
		}
		flusher.Flush()
	}
}

func parseLastEventID(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// writeSSE frames one event; Data is single-line JSON.
func writeSSE(w io.Writer, ev events.Event) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, ev.Data)
	return err
}
