package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned on 401 responses. The caller clears the
// persisted session and asks the user to log in again.
var ErrUnauthorized = errors.New("session is no longer valid")

// Kind classifies backend request failures per the client taxonomy.
type Kind string

const (
	KindInvalidRequest     Kind = "invalid_request"
	KindValidationError    Kind = "validation_error"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindServerError        Kind = "server_error"
	KindJobFailed          Kind = "job_failed"
)

// Error is a typed backend request failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Body       string
	Err        error
}

// Error formats the failure for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is an api error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
