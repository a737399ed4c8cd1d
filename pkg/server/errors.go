package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and registry conditions.
var (
	// ErrPortUnavailable is returned when the listener cannot be bound.
	ErrPortUnavailable = errors.New("server: port unavailable")

	// ErrAlreadyRunning is returned by Start while a run is active. It is
	// reported through a PortError so callers matching ErrPortUnavailable
	// also see it.
	ErrAlreadyRunning = errors.New("server: already running")

	// ErrNotRunning is returned by operations that need an active run.
	ErrNotRunning = errors.New("server: not running")

	// ErrUnknownProfile is returned for a quality profile name that matches
	// no preset.
	ErrUnknownProfile = errors.New("server: unknown quality profile")

	// ErrInvalidAddress is returned for a malformed host:port string.
	ErrInvalidAddress = errors.New("server: invalid address")

	// ErrNoSource is returned by Start when no frame source is configured.
	ErrNoSource = errors.New("server: no frame source")
)

// PortError reports a failure to bring the listener up.
type PortError struct {
	Addr string
	Err  error
}

// Error returns the error message with the listen address.
func (e *PortError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("server: listen: %v", e.Err)
	}
	return fmt.Sprintf("server: listen %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *PortError) Unwrap() error {
	return e.Err
}

// Is reports every PortError as ErrPortUnavailable.
func (e *PortError) Is(target error) bool {
	return target == ErrPortUnavailable
}

// ClientError wraps an error that ended one viewer's stream.
type ClientError struct {
	Addr  string
	Stage string // capture, encode, or write
	Err   error
}

// Error returns the error message with client context.
func (e *ClientError) Error() string {
	return fmt.Sprintf("server: client %s: %s: %v", e.Addr, e.Stage, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// Stream stages reported in ClientError and metrics.
const (
	StageCapture = "capture"
	StageEncode  = "encode"
	StageWrite   = "write"
)
