package server

import (
	"image"
	"net"
	"strconv"
	"time"

	"github.com/insightlink-dev/insightlink/pkg/capture"
	"github.com/insightlink-dev/insightlink/pkg/watermark"
)

// Config holds the listener and streaming settings of a Session.
type Config struct {
	// Host is the listen interface.
	// Default: "0.0.0.0".
	Host string

	// Port is the TCP listen port. 0 asks the kernel for a free port, which
	// Session.Addr reports after Start.
	// Default: 9999.
	Port int

	// Monitor is the captured screen region. The zero value is the primary
	// display.
	Monitor capture.Monitor

	// WriteTimeout bounds a single frame write. 0 disables the deadline and
	// relies on the forced close to unblock a stuck write.
	// Default: 5s.
	WriteTimeout time.Duration

	// PausePollInterval is how often a paused production loop rechecks the
	// pause flag.
	// Default: 500ms.
	PausePollInterval time.Duration

	// WatermarkOrigin is the top-left corner of the watermark text. (0, 0)
	// places it at the corner of the frame.
	// Default: (15, 15) from DefaultConfig.
	WatermarkOrigin image.Point
}

// Defaults for Config.
const (
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 9999
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPausePollInterval = 500 * time.Millisecond
)

// DefaultConfig returns a Config with the default settings.
func DefaultConfig() *Config {
	return &Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		WriteTimeout:      DefaultWriteTimeout,
		PausePollInterval: DefaultPausePollInterval,
		WatermarkOrigin:   watermark.DefaultOrigin,
	}
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return DefaultConfig()
	}
	clone := *c
	return &clone
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.PausePollInterval <= 0 {
		c.PausePollInterval = DefaultPausePollInterval
	}
	if c.WriteTimeout < 0 {
		c.WriteTimeout = 0
	}
}
