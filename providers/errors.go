package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind is the closed set of provider failure kinds.
type ErrorKind string

const (
	ErrorKindAuthentication        ErrorKind = "authentication"
	ErrorKindRateLimit             ErrorKind = "rate_limit"
	ErrorKindInvalidRequest        ErrorKind = "invalid_request"
	ErrorKindModelNotFound         ErrorKind = "model_not_found"
	ErrorKindContextLengthExceeded ErrorKind = "context_length_exceeded"
	ErrorKindContentFiltered       ErrorKind = "content_filtered"
	ErrorKindServerError           ErrorKind = "server_error"
	ErrorKindNetworkError          ErrorKind = "network_error"
	ErrorKindTimeout               ErrorKind = "timeout"
	ErrorKindUnknown               ErrorKind = "unknown"
)

// Retryable reports whether a request failing with this kind may succeed if repeated.
func (k ErrorKind) Retryable() bool {
	switch k {
	case ErrorKindRateLimit, ErrorKindServerError, ErrorKindNetworkError, ErrorKindTimeout:
		return true
	default:
		return false
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failed request may succeed if repeated.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// NewError creates a new provider error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf classifies any error returned by a provider. Errors that are not
// *Error are classified from context and network errors, else unknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindNetworkError
	}
	return ErrorKindUnknown
}

// IsRetryable reports whether err is a retryable provider failure.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err).Retryable()
}

// KindForStatus maps an HTTP status code onto an error kind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrorKindAuthentication
	case status == http.StatusTooManyRequests:
		return ErrorKindRateLimit
	case status == http.StatusNotFound:
		return ErrorKindModelNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ErrorKindTimeout
	case status == http.StatusRequestEntityTooLarge:
		return ErrorKindContextLengthExceeded
	case status >= 500:
		return ErrorKindServerError
	case status >= 400:
		return ErrorKindInvalidRequest
	default:
		return ErrorKindUnknown
	}
}
