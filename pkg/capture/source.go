// Package capture provides frame sources for the presenter.
//
// A Source yields one raw RGBA screen image per call. Capture blocks until a
// frame is available and is safe to call from several goroutines; each
// viewer's production loop pulls its own frames.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	// ErrClosed is returned by Capture after Close.
	ErrClosed = errors.New("capture: source closed")

	// ErrBackendUnavailable is returned when a backend was not compiled in or
	// cannot run in the current environment.
	ErrBackendUnavailable = errors.New("capture: backend unavailable")

	// ErrInvalidMonitor is returned for a monitor descriptor with no area.
	ErrInvalidMonitor = errors.New("capture: invalid monitor")
)

// Monitor describes the screen region to capture.
// A zero Width or Height means the backend's full primary display.
type Monitor struct {
	Index  int `json:"index,omitempty"`
	X      int `json:"x,omitempty"`
	Y      int `json:"y,omitempty"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Rect returns the monitor region, or an empty rectangle for "full display".
func (m Monitor) Rect() image.Rectangle {
	if m.Width <= 0 || m.Height <= 0 {
		return image.Rectangle{}
	}
	return image.Rect(m.X, m.Y, m.X+m.Width, m.Y+m.Height)
}

// Source produces raw screen frames.
type Source interface {
	// Capture grabs one frame of the given monitor. The returned image is
	// owned by the caller.
	Capture(ctx context.Context, m Monitor) (*image.RGBA, error)

	// Name returns a human-readable name for this source.
	Name() string

	// Close releases backend resources. Safe to call more than once.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendPattern = "pattern"
	BackendGst     = "gst"
)

// Options configures Open.
type Options struct {
	// Backend selects the implementation ("pattern" or "gst").
	Backend string

	// Width and Height fix the output size. Zero uses the backend default.
	Width  int
	Height int

	// Display is the X display for the gst backend (e.g. ":0"). Empty uses
	// $DISPLAY.
	Display string
}

// Open creates a Source for the configured backend.
func Open(opts Options) (Source, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendPattern:
		return NewPatternSource(opts.Width, opts.Height), nil
	case BackendGst:
		return newGstSource(opts)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, opts.Backend)
	}
}
