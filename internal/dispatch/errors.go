package dispatch

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the downstream URL or token is unset.
var ErrNotConfigured = errors.New("downstream webhook not configured")

// maxBodySnippet caps how much of a failed response body is kept.
const maxBodySnippet = 500

// DeliveryError describes a failed delivery attempt. StatusCode is zero when
// no response was received.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("deliver batch: downstream returned %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("deliver batch: downstream returned %d", e.StatusCode)
	default:
		return fmt.Sprintf("deliver batch: %v", e.Err)
	}
}

func (e *DeliveryError) Unwrap() error { return e.Err }
