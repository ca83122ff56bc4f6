package capture

import "fmt"

// ErrKind classifies capture failures for the coordinator.
type ErrKind string

const (
	ErrKindPermissionDenied  ErrKind = "permission_denied"
	ErrKindDeviceUnavailable ErrKind = "device_unavailable"
)

// Error is a capture failure with platform context.
type Error struct {
	Kind    ErrKind
	Message string
	Stderr  string
	Err     error
}

// Error formats capture failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
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
