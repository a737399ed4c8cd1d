package errors

import (
	stderrors "errors"

	"github.com/insightlink-dev/insightlink/pkg/capture"
	"github.com/insightlink-dev/insightlink/pkg/protocol"
	"github.com/insightlink-dev/insightlink/pkg/server"
	"github.com/insightlink-dev/insightlink/pkg/viewer"
)

// classifiers are checked in order; the first match wins. ErrAlreadyRunning
// precedes ErrPortUnavailable because it matches both.
var classifiers = []struct {
	target error
	code   string
}{
	{server.ErrAlreadyRunning, CodeAlreadyRunning},
	{server.ErrPortUnavailable, CodePortUnavailable},
	{server.ErrUnknownProfile, CodeUnknownProfile},
	{server.ErrInvalidAddress, CodeInvalidAddress},
	{server.ErrNotRunning, CodeNotRunning},
	{viewer.ErrInvalidAddress, CodeInvalidAddress},
	{viewer.ErrConnectFailed, CodeConnectFailed},
	{protocol.ErrFrameTooLarge, CodeFrameTooLarge},
	{protocol.ErrConnectionLost, CodeConnectionLost},
	{capture.ErrBackendUnavailable, CodeCaptureUnavailable},
}

// Classify maps an error from the InsightLink packages to a coded Error.
// Unrecognized errors are returned as an uncoded CLI error; nil stays nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	for _, c := range classifiers {
		if stderrors.Is(err, c.target) {
			return New(c.code).Wrap(err)
		}
	}
	return &Error{Category: CategoryCLI, Message: err.Error()}
}
