package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
)

func TestPatternSourceCapture(t *testing.T) {
	src := NewPatternSource(64, 48)
	defer src.Close()

	img, err := src.Capture(context.Background(), Monitor{})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if img.Rect.Dx() != 64 || img.Rect.Dy() != 48 {
		t.Errorf("Capture() size = %v, want 64x48", img.Rect)
	}

	next, err := src.Capture(context.Background(), Monitor{})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if bytes.Equal(img.Pix, next.Pix) {
		t.Error("successive frames should differ")
	}
	if src.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", src.Frames())
	}
}

func TestPatternSourceDefaults(t *testing.T) {
	src := NewPatternSource(0, 0)
	if src.width != DefaultPatternWidth || src.height != DefaultPatternHeight {
		t.Errorf("defaults = %dx%d", src.width, src.height)
	}
	if src.Name() != BackendPattern {
		t.Errorf("Name() = %q", src.Name())
	}
}

func TestPatternSourceMonitorCrop(t *testing.T) {
	src := NewPatternSource(64, 48)

	img, err := src.Capture(context.Background(), Monitor{X: 10, Y: 10, Width: 20, Height: 16})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if img.Rect.Dx() != 20 || img.Rect.Dy() != 16 {
		t.Errorf("cropped size = %v, want 20x16", img.Rect)
	}

	if _, err := src.Capture(context.Background(), Monitor{X: 100, Y: 100, Width: 5, Height: 5}); !errors.Is(err, ErrInvalidMonitor) {
		t.Errorf("off-screen monitor error = %v, want ErrInvalidMonitor", err)
	}
}

func TestPatternSourceClosedAndCancelled(t *testing.T) {
	src := NewPatternSource(8, 8)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Capture(ctx, Monitor{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Capture() error = %v", err)
	}

	src.Close()
	src.Close()
	if _, err := src.Capture(context.Background(), Monitor{}); !errors.Is(err, ErrClosed) {
		t.Errorf("closed Capture() error = %v, want ErrClosed", err)
	}
}

func TestPatternSourceConcurrent(t *testing.T) {
	src := NewPatternSource(32, 32)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := src.Capture(context.Background(), Monitor{}); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if src.Frames() != 80 {
		t.Errorf("Frames() = %d, want 80", src.Frames())
	}
}

func TestOpen(t *testing.T) {
	src, err := Open(Options{Backend: "pattern", Width: 16, Height: 16})
	if err != nil {
		t.Fatalf("Open(pattern) error = %v", err)
	}
	src.Close()

	if _, err := Open(Options{Backend: "vnc"}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Open(vnc) error = %v, want ErrBackendUnavailable", err)
	}
}
