package config

import (
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/insightlink-dev/insightlink/internal/errors"
	"github.com/insightlink-dev/insightlink/pkg/capture"
	"github.com/insightlink-dev/insightlink/pkg/protocol"
	"github.com/insightlink-dev/insightlink/pkg/server"
	"github.com/insightlink-dev/insightlink/pkg/viewer"
	"github.com/insightlink-dev/insightlink/pkg/watermark"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "insightlink.json"

	// DefaultAdminAddress is the default admin API listen address.
	DefaultAdminAddress = "127.0.0.1:9998"

	// DefaultViewerOutput is where the viewer writes the latest frame.
	DefaultViewerOutput = "insightlink-view.jpg"
)

// Config represents the complete insightlink.json configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Viewer    ViewerConfig    `json:"viewer"`
	Admin     AdminConfig     `json:"admin"`
	Capture   CaptureConfig   `json:"capture"`
	Watermark WatermarkConfig `json:"watermark"`
	Log       LogConfig       `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains presenter settings.
type ServerConfig struct {
	// Host is the listen interface.
	Host string `json:"host,omitempty"`

	// Port is the TCP listen port.
	Port int `json:"port,omitempty"`

	// Profile is the quality preset used when none is given on the
	// command line.
	Profile string `json:"profile,omitempty"`

	// Monitor selects the captured screen region.
	Monitor capture.Monitor `json:"monitor,omitempty"`

	// WriteTimeout bounds one frame write (e.g., "5s"). "0s" disables it.
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// PausePoll is how often a paused stream rechecks (e.g., "500ms").
	PausePoll string `json:"pausePoll,omitempty"`
}

// ViewerConfig contains viewer settings.
type ViewerConfig struct {
	// Port is the presenter's TCP port.
	Port int `json:"port,omitempty"`

	// DialTimeout bounds the connect attempt (e.g., "5s").
	DialTimeout string `json:"dialTimeout,omitempty"`

	// MaxFrameSize is the largest accepted payload in bytes.
	MaxFrameSize int `json:"maxFrameSize,omitempty"`

	// Output is the JPEG file the viewer keeps replacing with the latest
	// frame.
	Output string `json:"output,omitempty"`

	// Viewport is the size frames are fitted into. Zero keeps the
	// presenter's size.
	Viewport ViewportConfig `json:"viewport,omitempty"`
}

// ViewportConfig is a display size.
type ViewportConfig struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// AdminConfig contains the HTTP control API settings.
type AdminConfig struct {
	// Enabled starts the admin API alongside the presenter.
	Enabled bool `json:"enabled,omitempty"`

	// Address is the admin API listen address.
	Address string `json:"address,omitempty"`
}

// CaptureConfig selects the frame source.
type CaptureConfig struct {
	// Backend is "pattern" or "gst".
	Backend string `json:"backend,omitempty"`

	// Width and Height fix the captured size. Zero uses the backend default.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Display is the X display for the gst backend.
	Display string `json:"display,omitempty"`
}

// WatermarkConfig styles the viewer watermark.
type WatermarkConfig struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	MinFontPx int `json:"minFontPx,omitempty"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         server.DefaultHost,
			Port:         server.DefaultPort,
			Profile:      server.ProfileMedium,
			WriteTimeout: server.DefaultWriteTimeout.String(),
			PausePoll:    server.DefaultPausePollInterval.String(),
		},
		Viewer: ViewerConfig{
			Port:         viewer.DefaultPort,
			DialTimeout:  viewer.DefaultDialTimeout.String(),
			MaxFrameSize: protocol.MaxPayloadSize,
			Output:       DefaultViewerOutput,
		},
		Admin: AdminConfig{
			Address: DefaultAdminAddress,
		},
		Capture: CaptureConfig{
			Backend: capture.BackendPattern,
		},
		Watermark: WatermarkConfig{
			X:         watermark.DefaultOrigin.X,
			Y:         watermark.DefaultOrigin.Y,
			MinFontPx: watermark.DefaultMinFontPx,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for insightlink.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + ConfigFileName + " found at " + path).
				Wrap(err)
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromWorkingDir loads insightlink.json from the current directory, or
// returns the defaults when there is none.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if !Exists(wd) {
		return New(), nil
	}
	return Load(wd)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.Profile == "" {
		c.Server.Profile = d.Server.Profile
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.PausePoll == "" {
		c.Server.PausePoll = d.Server.PausePoll
	}

	if c.Viewer.Port == 0 {
		c.Viewer.Port = d.Viewer.Port
	}
	if c.Viewer.DialTimeout == "" {
		c.Viewer.DialTimeout = d.Viewer.DialTimeout
	}
	if c.Viewer.MaxFrameSize == 0 {
		c.Viewer.MaxFrameSize = d.Viewer.MaxFrameSize
	}
	if c.Viewer.Output == "" {
		c.Viewer.Output = d.Viewer.Output
	}

	if c.Admin.Address == "" {
		c.Admin.Address = d.Admin.Address
	}
	if c.Capture.Backend == "" {
		c.Capture.Backend = d.Capture.Backend
	}

	if c.Watermark.MinFontPx == 0 {
		c.Watermark.MinFontPx = d.Watermark.MinFontPx
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail(field + ": " + fmt.Sprintf(format, args...))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 0 and 65535, got %d", c.Server.Port)
	}
	if _, err := server.LookupProfile(c.Server.Profile); err != nil {
		return invalid("server.profile", "%q is not high, medium, or low", c.Server.Profile)
	}
	if _, err := parseDuration(c.Server.WriteTimeout); err != nil {
		return invalid("server.writeTimeout", "%v", err)
	}
	if d, err := parseDuration(c.Server.PausePoll); err != nil || d == 0 {
		return invalid("server.pausePoll", "must be a positive duration, got %q", c.Server.PausePoll)
	}
	if c.Server.Monitor.Width < 0 || c.Server.Monitor.Height < 0 {
		return invalid("server.monitor", "width and height must not be negative")
	}

	if c.Viewer.Port < 1 || c.Viewer.Port > 65535 {
		return invalid("viewer.port", "must be between 1 and 65535, got %d", c.Viewer.Port)
	}
	if _, err := parseDuration(c.Viewer.DialTimeout); err != nil {
		return invalid("viewer.dialTimeout", "%v", err)
	}
	if c.Viewer.MaxFrameSize < 1 || c.Viewer.MaxFrameSize > protocol.MaxPayloadSize {
		return invalid("viewer.maxFrameSize", "must be between 1 and %d, got %d", protocol.MaxPayloadSize, c.Viewer.MaxFrameSize)
	}
	if c.Viewer.Viewport.Width < 0 || c.Viewer.Viewport.Height < 0 {
		return invalid("viewer.viewport", "width and height must not be negative")
	}

	if _, _, err := net.SplitHostPort(c.Admin.Address); err != nil {
		return invalid("admin.address", "%v", err)
	}

	switch strings.ToLower(c.Capture.Backend) {
	case capture.BackendPattern, capture.BackendGst:
	default:
		return invalid("capture.backend", "%q is not pattern or gst", c.Capture.Backend)
	}
	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		return invalid("capture", "width and height must not be negative")
	}

	if c.Watermark.MinFontPx < 0 {
		return invalid("watermark.minFontPx", "must not be negative")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalid("log.format", "%q is not text or json", c.Log.Format)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}

// ServerConfig returns the presenter settings as a server.Config.
func (c *Config) ServerConfig() *server.Config {
	cfg := server.DefaultConfig()
	cfg.Host = c.Server.Host
	cfg.Port = c.Server.Port
	cfg.Monitor = c.Server.Monitor
	if d, err := parseDuration(c.Server.WriteTimeout); err == nil {
		cfg.WriteTimeout = d
	}
	if d, err := parseDuration(c.Server.PausePoll); err == nil && d > 0 {
		cfg.PausePollInterval = d
	}
	cfg.WatermarkOrigin = image.Pt(c.Watermark.X, c.Watermark.Y)
	return cfg
}

// ViewerConfig returns the connection settings as a viewer.Config.
func (c *Config) ViewerConfig() viewer.Config {
	cfg := viewer.DefaultConfig()
	cfg.Port = c.Viewer.Port
	cfg.MaxFrameSize = c.Viewer.MaxFrameSize
	if d, err := parseDuration(c.Viewer.DialTimeout); err == nil && d > 0 {
		cfg.DialTimeout = d
	}
	return cfg
}

// CaptureOptions returns the frame source settings.
func (c *Config) CaptureOptions() capture.Options {
	return capture.Options{
		Backend: c.Capture.Backend,
		Width:   c.Capture.Width,
		Height:  c.Capture.Height,
		Display: c.Capture.Display,
	}
}

// Overlay returns the watermark overlay styled from the config.
func (c *Config) Overlay() *watermark.TextOverlay {
	o := watermark.NewTextOverlay()
	if c.Watermark.MinFontPx > 0 {
		o.MinFontPx = c.Watermark.MinFontPx
	}
	return o
}
