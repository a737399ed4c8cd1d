package viewer

import (
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Fit returns the largest rectangle with src's aspect ratio that fits in a
// viewport of w x h, anchored at the origin. A non-positive viewport leaves
// the size unchanged.
func Fit(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if w <= 0 || h <= 0 || sw <= 0 || sh <= 0 {
		return image.Rect(0, 0, sw, sh)
	}
	// Compare w/sw with h/sh without floating point.
	if w*sh <= h*sw {
		return image.Rect(0, 0, w, max(1, sh*w/sw))
	}
	return image.Rect(0, 0, max(1, sw*h/sh), h)
}

// FileRenderer writes the latest frame, scaled to the viewport, to a JPEG
// file. The file is replaced atomically so readers never see a partial
// image.
type FileRenderer struct {
	Path    string
	Width   int
	Height  int
	Quality int

	Logger *slog.Logger

	mu     sync.Mutex
	frames int
}

// Render implements Renderer.
func (f *FileRenderer) Render(img image.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := img
	if r := Fit(img.Bounds(), f.Width, f.Height); r.Size() != img.Bounds().Size() {
		dst := image.NewRGBA(r)
		xdraw.CatmullRom.Scale(dst, r, img, img.Bounds(), xdraw.Src, nil)
		out = dst
	}

	quality := f.Quality
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp frame: %w", err)
	}
	if err := jpeg.Encode(tmp, out, &jpeg.Options{Quality: quality}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace frame: %w", err)
	}
	f.frames++
	return nil
}

// Disconnected implements Renderer.
func (f *FileRenderer) Disconnected(err error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f.mu.Lock()
	frames := f.frames
	f.mu.Unlock()
	logger.Info(DisconnectReason(err), "path", f.Path, "frames_written", frames)
}

// LogRenderer only logs frames. It is useful for checking a presenter from a
// headless machine.
type LogRenderer struct {
	Logger *slog.Logger
	Every  int // log every Nth frame; 0 logs every frame

	n int
}

// Render implements Renderer.
func (l *LogRenderer) Render(img image.Image) error {
	l.n++
	if l.Every > 1 && l.n%l.Every != 0 {
		return nil
	}
	l.logger().Info("frame", "n", l.n, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

// Disconnected implements Renderer.
func (l *LogRenderer) Disconnected(err error) {
	l.logger().Info(DisconnectReason(err), "frames", l.n)
}

func (l *LogRenderer) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
