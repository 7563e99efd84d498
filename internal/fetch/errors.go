package fetch

import "fmt"

// Kind classifies a fetch failure.
type Kind int

// Fetch failure kinds. A page that fails for any of these reasons is
// skipped by the traversal; none of them abort the run.
const (
	// KindNetwork is a transport-level failure (DNS, connect, TLS, read).
	KindNetwork Kind = iota

	// KindTimeout is a request that exceeded the configured timeout or
	// was cancelled.
	KindTimeout

	// KindStatus is a response with a non-2xx status after redirects.
	KindStatus
)

// String returns a short name for the kind, used in logs and failure records.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Error is a typed fetch failure.
// Callers use errors.As to branch on Kind; the zero StatusCode means the
// failure happened before any response arrived.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// URL is the URL that failed.
	URL string

	// StatusCode is the HTTP status for KindStatus failures.
	StatusCode int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}
