package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/insightlink-dev/insightlink/pkg/capture"
	"github.com/insightlink-dev/insightlink/pkg/protocol"
	"github.com/insightlink-dev/insightlink/pkg/server"
	"github.com/insightlink-dev/insightlink/pkg/viewer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "port unavailable",
			code:    CodePortUnavailable,
			wantMsg: "Port unavailable",
			wantCat: CategorySession,
		},
		{
			name:    "invalid address",
			code:    CodeInvalidAddress,
			wantMsg: "Invalid address",
			wantCat: CategoryValidation,
		},
		{
			name:    "frame too large",
			code:    CodeFrameTooLarge,
			wantMsg: "Frame too large",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "IL999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := New(CodeNotRunning)
	if got, want := err.Error(), "IL008: Session not running"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := New(CodeConnectFailed).Wrap(fmt.Errorf("dial tcp: refused"))
	if got := wrapped.Error(); !strings.HasSuffix(got, ": dial tcp: refused") {
		t.Errorf("Error() = %q", got)
	}

	plain := &Error{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"already running", &server.PortError{Err: server.ErrAlreadyRunning}, CodeAlreadyRunning},
		{"port in use", &server.PortError{Addr: ":9999", Err: fmt.Errorf("address already in use")}, CodePortUnavailable},
		{"unknown profile", fmt.Errorf("%w: %q", server.ErrUnknownProfile, "ultra"), CodeUnknownProfile},
		{"bad kick address", server.ErrInvalidAddress, CodeInvalidAddress},
		{"not running", server.ErrNotRunning, CodeNotRunning},
		{"bad viewer host", viewer.ErrInvalidAddress, CodeInvalidAddress},
		{"connect failed", fmt.Errorf("%w: refused", viewer.ErrConnectFailed), CodeConnectFailed},
		{"oversize", protocol.ErrFrameTooLarge, CodeFrameTooLarge},
		{"lost", fmt.Errorf("%w: reset", protocol.ErrConnectionLost), CodeConnectionLost},
		{"capture", capture.ErrBackendUnavailable, CodeCaptureUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Code != tt.code {
				t.Errorf("Classify() code = %q, want %q", got.Code, tt.code)
			}
			if !stderrors.Is(got, tt.err) {
				t.Error("Classify() lost the original error")
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}

	other := Classify(fmt.Errorf("disk full"))
	if other.Code != "" || other.Category != CategoryCLI || other.Message != "disk full" {
		t.Errorf("Classify(other) = %+v", other)
	}

	coded := New(CodeConfigInvalid)
	if Classify(fmt.Errorf("load: %w", coded)) != coded {
		t.Error("Classify() should return an existing *Error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeConnectFailed) != nil {
		t.Error("FromError(nil) should be nil")
	}

	base := fmt.Errorf("boom")
	e := FromError(base, CodeConnectFailed)
	if e.Code != CodeConnectFailed || e.Wrapped != base {
		t.Errorf("FromError() = %+v", e)
	}
	if FromError(e, CodeFrameTooLarge) != e {
		t.Error("FromError() should return an *Error unchanged")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodePortUnavailable).Wrap(fmt.Errorf("listen tcp :9999: bind: address already in use"))
	out := err.Format()

	for _, want := range []string{
		"ERROR IL001: Port unavailable",
		"Cause: listen tcp :9999",
		"Hint: Close the other application",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatJSON(t *testing.T) {
	err := New(CodeUnknownProfile).Wrap(fmt.Errorf("ultra"))

	var got map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", jerr)
	}
	if got["code"] != CodeUnknownProfile || got["category"] != string(CategoryValidation) || got["cause"] != "ultra" {
		t.Errorf("FormatJSON() = %v", got)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, New(CodeNotRunning))
	if !strings.Contains(buf.String(), "ERROR IL008") {
		t.Errorf("PrintError() = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, fmt.Errorf("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("PrintError(plain) = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, nil)
	if buf.Len() != 0 {
		t.Error("PrintError(nil) wrote output")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven eight nine ten", 15)
	for _, l := range lines {
		if len(l) > 15 {
			t.Errorf("line %q longer than 15", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven eight nine ten" {
		t.Errorf("wrapText() lost words: %q", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) != 11 || codes[0] != CodePortUnavailable || codes[10] != CodeConfigNotFound {
		t.Errorf("GetAllCodes() = %v", codes)
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Suggestion == "" {
			t.Errorf("template %s incomplete: %+v", code, tmpl)
		}
	}

	Register("IL900", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	defer delete(registry, "IL900")
	if New("IL900").Message != "custom" {
		t.Error("Register() did not add the template")
	}
}
