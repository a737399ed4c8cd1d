package viewer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/insightlink-dev/insightlink/pkg/protocol"
)

var (
	// ErrInvalidAddress is returned for a presenter host that is not a
	// dotted-quad IPv4 address. No connection is attempted.
	ErrInvalidAddress = errors.New("viewer: invalid address")

	// ErrConnectFailed is returned when the presenter cannot be reached.
	ErrConnectFailed = errors.New("viewer: connect failed")

	// ErrDecodeFailure marks a frame whose payload could not be decoded.
	// The frame is skipped and the connection kept.
	ErrDecodeFailure = errors.New("viewer: decode failure")
)

// Config holds connection settings.
type Config struct {
	// Port is the presenter's TCP port.
	// Default: 9999.
	Port int

	// DialTimeout bounds the connect attempt.
	// Default: 5s.
	DialTimeout time.Duration

	// MaxFrameSize is the largest payload accepted.
	// Default: protocol.MaxPayloadSize.
	MaxFrameSize int
}

// Defaults for Config.
const (
	DefaultPort        = 9999
	DefaultDialTimeout = 5 * time.Second
)

// DefaultConfig returns a Config with the default settings.
func DefaultConfig() Config {
	return Config{
		Port:         DefaultPort,
		DialTimeout:  DefaultDialTimeout,
		MaxFrameSize: protocol.MaxPayloadSize,
	}
}

func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.MaxFrameSize <= 0 || c.MaxFrameSize > protocol.MaxPayloadSize {
		c.MaxFrameSize = protocol.MaxPayloadSize
	}
}

// ValidateHost accepts only a dotted-quad IPv4 address.
func ValidateHost(host string) error {
	host = strings.TrimSpace(host)
	addr, err := netip.ParseAddr(host)
	if err != nil || !addr.Is4() {
		return fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, host)
	}
	return nil
}

// Dial validates host and connects to the presenter on cfg.Port.
func Dial(ctx context.Context, host string, cfg Config) (net.Conn, error) {
	if err := ValidateHost(host); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	addr := net.JoinHostPort(strings.TrimSpace(host), strconv.Itoa(cfg.Port))
	d := net.Dialer{Timeout: cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp4", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, addr, err)
	}
	return conn, nil
}
