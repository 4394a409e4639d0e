package technique

import (
	"errors"
	"fmt"

	"github.com/teilomillet/promptopt/providers"
)

// ErrorKind classifies failures crossing the technique boundary.
type ErrorKind string

const (
	KindProvider      ErrorKind = "PROVIDER_ERROR"
	KindInvalidConfig ErrorKind = "INVALID_CONFIG"
	KindTimeout       ErrorKind = "TIMEOUT"
)

// Error is a recoverable technique failure.
type Error struct {
	Kind ErrorKind
	// Field names the missing or invalid element for KindInvalidConfig.
	Field     string
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConfigError reports a missing or invalid configuration or context element.
func NewConfigError(field, message string, err error) *Error {
	return &Error{Kind: KindInvalidConfig, Field: field, Message: message, Err: err}
}

const errNoProviderMessage = "no completion provider configured"

// NewNoProviderError reports that a technique was used without a provider.
func NewNoProviderError() *Error {
	return &Error{Kind: KindProvider, Message: errNoProviderMessage}
}

// FromProviderError classifies a provider failure. Timeouts keep their own kind.
func FromProviderError(err error) *Error {
	if err == nil {
		return nil
	}
	var terr *Error
	if errors.As(err, &terr) {
		return terr
	}
	kind := providers.KindOf(err)
	out := &Error{
		Kind:      KindProvider,
		Message:   string(kind),
		Retryable: kind.Retryable(),
		Err:       err,
	}
	if kind == providers.ErrorKindTimeout {
		out.Kind = KindTimeout
		out.Message = "completion request timed out"
	}
	return out
}

// KindOf returns the technique error kind of err, or "" if err is not a *Error.
func KindOf(err error) ErrorKind {
	var terr *Error
	if errors.As(err, &terr) {
		return terr.Kind
	}
	return ""
}
