package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mattjoyce/incomerelay/internal/log"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 60 * time.Second

// Sender posts batches to the downstream endpoint.
type Sender struct {
	url    string
	token  string
	client *http.Client
	logger *slog.Logger
}

// NewSender creates a Sender. A non-positive timeout uses DefaultTimeout.
func NewSender(url, token string, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sender{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
		logger: log.WithComponent("dispatch"),
	}
}

// Configured reports whether both the URL and token are set.
func (s *Sender) Configured() bool {
	return s.url != "" && s.token != ""
}

// Send makes one delivery attempt for b.
func (s *Sender) Send(ctx context.Context, b Batch) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode batch %s: %w", b.BatchID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	s.logger.Info("batch delivered",
		"batch_id", b.BatchID,
		"status", resp.StatusCode,
		"payload_bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
