package inference

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is any failure talking to the inference provider:
// transport, non-2xx status, quota exhaustion, malformed payload or a
// stalled stream.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("inference %s: status %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("inference %s: %s", e.Op, msg)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// QuotaExceeded reports whether the provider rejected the call for quota.
func (e *UpstreamError) QuotaExceeded() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// ErrReadTimeout is wrapped when no upstream record arrives in time.
var ErrReadTimeout = errors.New("upstream read timed out")

func IsUpstreamError(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}
