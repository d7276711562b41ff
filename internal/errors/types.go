package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorType represents the classification of a probe failure.
type ErrorType int

const (
	// ErrorTypeTransient - the address may answer later (network, 5xx, 429)
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent - the address will not yield a type (4xx, bad reference)
	ErrorTypePermanent
	// ErrorTypeCanceled - the caller abandoned the probe; not a failure
	ErrorTypeCanceled
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// TransientError represents a probe failure that may succeed on a later attempt.
type TransientError struct {
	Err        error
	StatusCode int
	URL        string
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("probe %s: transient status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("probe %s: transient error: %v", e.URL, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents a probe failure that will not change on retry.
type PermanentError struct {
	Err        error
	StatusCode int
	URL        string
}

func (e *PermanentError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("probe %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("probe %s: %v", e.URL, e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// ErrInvalidReference is returned for references that cannot be resolved to an address.
var ErrInvalidReference = errors.New("invalid attachment reference")

// NewStatusError wraps a non-2xx probe response in the matching typed error.
func NewStatusError(url string, statusCode int) error {
	if isTransientHTTPStatus(statusCode) {
		return &TransientError{URL: url, StatusCode: statusCode, Err: errors.New(http.StatusText(statusCode))}
	}
	return &PermanentError{URL: url, StatusCode: statusCode, Err: errors.New(http.StatusText(statusCode))}
}

// WrapTransport classifies a transport-level failure for url.
func WrapTransport(url string, err error) error {
	if err == nil {
		return nil
	}
	if IsCancellation(err) {
		return err
	}
	if isNetworkError(err) || isSyscallError(err) {
		return &TransientError{URL: url, Err: err}
	}
	return &PermanentError{URL: url, Err: err}
}

// IsCancellation reports whether err only signals that the caller gave up on
// the probe. Such errors are expected and must not be reported as failures.
func IsCancellation(err error) bool {
	return err != nil && errors.Is(err, context.Canceled)
}

// IsTransient checks if an error may succeed on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}

	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}

	return isNetworkError(err) || isSyscallError(err)
}

// GetErrorType classifies an error
func GetErrorType(err error) ErrorType {
	switch {
	case IsCancellation(err):
		return ErrorTypeCanceled
	case IsTransient(err):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// StatusCode returns the HTTP status carried by a typed probe error, or 0.
func StatusCode(err error) int {
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return transientErr.StatusCode
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return permanentErr.StatusCode
	}
	return 0
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.IsTimeout
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"timeout",
		"connection reset",
		"broken pipe",
		"eof",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func isSyscallError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ECONNREFUSED || errno == syscall.ECONNRESET || errno == syscall.EPIPE
	}
	return false
}

func isTransientHTTPStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
