package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// STATUS_ENHANCE_YOUR_CALM is the legacy v1 rate-limit status.
const STATUS_ENHANCE_YOUR_CALM = 420

// Kind classifies a failure for retry purposes.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindNotFound
	KindRateLimited
	KindTransientServer
	KindTransport
	KindUnexpected
	KindSinkWrite
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindTransientServer:
		return "transient_server"
	case KindTransport:
		return "transport"
	case KindUnexpected:
		return "unexpected"
	case KindSinkWrite:
		return "sink_write"
	default:
		return "unknown"
	}
}

// Retryable reports whether the collector should retry a request that
// failed with this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTransientServer, KindTransport:
		return true
	default:
		return false
	}
}

// APIError is returned by SearchClient for every failed request.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("[SearchClient] %s: status %d: %s", e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("[SearchClient] %s: status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("[SearchClient] %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("[SearchClient] %s", e.Kind)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification carried anywhere in err's chain.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// ClassifyStatus maps a non-200 HTTP status onto a Kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests, status == STATUS_ENHANCE_YOUR_CALM:
		return KindRateLimited
	case status >= http.StatusInternalServerError:
		return KindTransientServer
	default:
		return KindUnexpected
	}
}

// PartialWriteError is returned by a sink that failed a batch after
// persisting Written of its Total records.
type PartialWriteError struct {
	Written int
	Total   int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: %v (persisted %d of %d)", KindSinkWrite, e.Err, e.Written, e.Total)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// WrittenOf returns how many records of a failed batch were persisted, 0
// unless err carries a *PartialWriteError.
func WrittenOf(err error) int {
	var pw *PartialWriteError
	if errors.As(err, &pw) {
		return pw.Written
	}
	return 0
}
