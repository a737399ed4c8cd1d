package errors

import "sort"

// Error codes.
const (
	CodePortUnavailable    = "IL001"
	CodeAlreadyRunning     = "IL002"
	CodeUnknownProfile     = "IL003"
	CodeInvalidAddress     = "IL004"
	CodeConnectFailed      = "IL005"
	CodeFrameTooLarge      = "IL006"
	CodeConfigInvalid      = "IL007"
	CodeNotRunning         = "IL008"
	CodeCaptureUnavailable = "IL009"
	CodeConnectionLost     = "IL010"
	CodeConfigNotFound     = "IL011"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	CodePortUnavailable: {
		Category:   CategorySession,
		Message:    "Port unavailable",
		Detail:     "The presenter could not listen on the configured TCP port. Another program, or another InsightLink presenter, is probably using it.",
		Suggestion: "Close the other application using the port, or pass --port.",
	},
	CodeAlreadyRunning: {
		Category:   CategorySession,
		Message:    "Session already running",
		Detail:     "A broadcast is already live. The quality profile can only be chosen while stopped.",
		Suggestion: "Stop the session first, then start it with the new profile.",
	},
	CodeUnknownProfile: {
		Category:   CategoryValidation,
		Message:    "Unknown quality profile",
		Detail:     "The quality profile must be one of the presets.",
		Suggestion: "Use high, medium, or low. Run 'insightlink profiles' to list them.",
	},
	CodeInvalidAddress: {
		Category:   CategoryValidation,
		Message:    "Invalid address",
		Detail:     "Viewers connect to a dotted-quad IPv4 address, and kicks take the viewer's ip:port exactly as listed.",
		Suggestion: "Check the address, for example 192.168.1.10 or 192.168.1.20:50312.",
	},
	CodeConnectFailed: {
		Category:   CategoryNetwork,
		Message:    "Could not connect to the presenter",
		Detail:     "The presenter did not accept the connection. It may not be running, or a firewall may be blocking the port.",
		Suggestion: "Make sure the presenter has started the session and that both machines are on the same network.",
	},
	CodeFrameTooLarge: {
		Category:   CategoryProtocol,
		Message:    "Frame too large",
		Detail:     "A frame declared a payload larger than the receiver accepts. The connection was closed.",
		Suggestion: "Lower the presenter's quality profile or raise viewer.maxFrameSize (at most 10 MiB).",
	},
	CodeConfigInvalid: {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Detail:     "insightlink.json has a value outside its allowed range.",
		Suggestion: "Fix the field named above, or delete the file to use the defaults.",
	},
	CodeNotRunning: {
		Category:   CategorySession,
		Message:    "Session not running",
		Detail:     "Pausing and resuming need a live session.",
		Suggestion: "Start the session first.",
	},
	CodeCaptureUnavailable: {
		Category:   CategoryCapture,
		Message:    "Capture backend unavailable",
		Detail:     "The requested screen capture backend is not built into this binary or cannot reach a display.",
		Suggestion: "Use --capture pattern, or build with -tags gst on a machine with GStreamer and an X display.",
	},
	CodeConnectionLost: {
		Category:   CategoryNetwork,
		Message:    "Connection lost",
		Detail:     "The connection to the presenter failed while receiving frames.",
		Suggestion: "Reconnect when the network is back.",
	},
	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No insightlink.json was found at the given path.",
		Suggestion: "Run 'insightlink config init' to write one with the defaults, or omit --config.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
