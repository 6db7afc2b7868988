// Package upstream holds what the two upstream clients (comments platform,
// summarization provider) share: HTTP client defaults and the error
// taxonomy for non-2xx and network failures.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/figsum/figsum/internal/util"
)

// DefaultTimeout bounds every upstream call so a hung provider cannot block
// the triggering user action indefinitely.
const DefaultTimeout = 30 * time.Second

// Sentinel errors surfaced by upstream clients.
var (
	// ErrUnauthorized means the bearer token was rejected (HTTP 401). The
	// caller is expected to invalidate the cached token.
	ErrUnauthorized = errors.New("unauthorized: access token rejected")

	// ErrNotFound means the requested resource does not exist (HTTP 404).
	ErrNotFound = errors.New("resource not found")

	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout = errors.New("upstream request timed out")
)

// Error carries the status and body of an unexpected non-2xx upstream
// response for diagnostics.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.Status, util.TruncateLog(e.Body, util.DefaultLogMaxLen))
}

// NewClient returns an HTTP client with the shared timeout applied.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// ClassifyNetworkError maps transport failures onto the taxonomy: deadline
// and timeout failures become ErrTimeout, everything else is wrapped as-is.
func ClassifyNetworkError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("network error: %w", err)
}
