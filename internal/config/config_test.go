package config

import (
	stderrors "errors"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/insightlink-dev/insightlink/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
	if cfg.Server.Profile != "medium" {
		t.Errorf("Server.Profile = %q, want medium", cfg.Server.Profile)
	}
	if cfg.Viewer.MaxFrameSize != 10*1024*1024 {
		t.Errorf("Viewer.MaxFrameSize = %d", cfg.Viewer.MaxFrameSize)
	}
	if cfg.Admin.Address != DefaultAdminAddress {
		t.Errorf("Admin.Address = %q", cfg.Admin.Address)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != errors.CodeConfigNotFound {
		t.Fatalf("Load(missing) error = %v, want IL011", err)
	}

	configJSON := `{
  "server": {
    "port": 9100,
    "profile": "High (LAN)",
    "pausePoll": "250ms",
    "monitor": {"x": 0, "y": 0, "width": 800, "height": 600}
  },
  "viewer": {
    "viewport": {"width": 1024, "height": 768}
  },
  "admin": {"enabled": true},
  "log": {"level": "debug", "format": "json"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host default not applied: %q", cfg.Server.Host)
	}
	if cfg.Viewer.Port != 9999 || cfg.Viewer.Output != DefaultViewerOutput {
		t.Errorf("viewer defaults not applied: %+v", cfg.Viewer)
	}
	if !cfg.Admin.Enabled || cfg.Admin.Address != DefaultAdminAddress {
		t.Errorf("Admin = %+v", cfg.Admin)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}

	sc := cfg.ServerConfig()
	if sc.Port != 9100 || sc.PausePollInterval != 250*time.Millisecond || sc.Monitor.Width != 800 {
		t.Errorf("ServerConfig() = %+v", sc)
	}
	if sc.WatermarkOrigin != image.Pt(15, 15) {
		t.Errorf("WatermarkOrigin = %v", sc.WatermarkOrigin)
	}
}

func TestLoadWatermarkCorner(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"watermark": {"x": 0, "y": 0}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := cfg.ServerConfig().WatermarkOrigin; got != image.Pt(0, 0) {
		t.Errorf("WatermarkOrigin = %v, want the frame corner", got)
	}

	// A saved corner origin survives a round trip through the file.
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	again, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Watermark.X != 0 || again.Watermark.Y != 0 {
		t.Errorf("reloaded watermark = %+v", again.Watermark)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantMsg string
	}{
		{"bad json", `{"server": `, "Failed to parse"},
		{"bad profile", `{"server": {"profile": "ultra"}}`, "server.profile"},
		{"bad port", `{"server": {"port": 70000}}`, "server.port"},
		{"bad duration", `{"server": {"writeTimeout": "soon"}}`, "server.writeTimeout"},
		{"zero pause poll", `{"server": {"pausePoll": "0s"}}`, "server.pausePoll"},
		{"oversize frames", `{"viewer": {"maxFrameSize": 20971520}}`, "viewer.maxFrameSize"},
		{"bad backend", `{"capture": {"backend": "vnc"}}`, "capture.backend"},
		{"bad level", `{"log": {"level": "loud"}}`, "log.level"},
		{"bad format", `{"log": {"format": "xml"}}`, "log.format"},
		{"bad admin", `{"admin": {"address": "nohostport"}}`, "admin.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.json), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Code != errors.CodeConfigInvalid {
				t.Fatalf("LoadFile() error = %v, want IL007", err)
			}
			if !strings.Contains(e.Detail, tt.wantMsg) {
				t.Errorf("Detail = %q, want it to mention %q", e.Detail, tt.wantMsg)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	if err := cfg.Save(); err == nil {
		t.Error("Save() without a path should fail")
	}

	cfg.Server.Port = 9200
	cfg.Capture.Width = 640
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Server.Port != 9200 || loaded.Capture.Width != 640 {
		t.Errorf("loaded = %+v", loaded)
	}

	loaded.Log.Level = "warn"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, _ := LoadFile(path)
	if again.Log.Level != "warn" {
		t.Errorf("Log.Level = %q after Save", again.Log.Level)
	}
}

func TestLoadFromWorkingDir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadFromWorkingDir()
	if err != nil {
		t.Fatalf("LoadFromWorkingDir() error = %v", err)
	}
	if cfg.Path() != "" || cfg.Server.Port != 9999 {
		t.Errorf("expected defaults, got %+v", cfg)
	}

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"server": {"port": 9300}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromWorkingDir()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9300 {
		t.Errorf("Server.Port = %d, want 9300", cfg.Server.Port)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) should fail")
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := New()
	cfg.Viewer.Port = 9500
	cfg.Viewer.DialTimeout = "2s"
	cfg.Capture.Backend = "gst"
	cfg.Capture.Display = ":1"
	cfg.Watermark.MinFontPx = 18

	vc := cfg.ViewerConfig()
	if vc.Port != 9500 || vc.DialTimeout != 2*time.Second {
		t.Errorf("ViewerConfig() = %+v", vc)
	}
	co := cfg.CaptureOptions()
	if co.Backend != "gst" || co.Display != ":1" {
		t.Errorf("CaptureOptions() = %+v", co)
	}
	if o := cfg.Overlay(); o.MinFontPx != 18 {
		t.Errorf("Overlay().MinFontPx = %d", o.MinFontPx)
	}
}
