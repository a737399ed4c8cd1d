package capture

import (
	"context"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
)

// Default pattern size.
const (
	DefaultPatternWidth  = 1280
	DefaultPatternHeight = 720
)

// PatternSource renders a moving test pattern. It needs no display and is
// used for headless presenters and tests.
type PatternSource struct {
	width  int
	height int

	tick   atomic.Uint64
	closed atomic.Bool

	// base is the static gradient, rendered once.
	baseOnce sync.Once
	base     *image.RGBA
}

// NewPatternSource returns a PatternSource of the given size.
func NewPatternSource(width, height int) *PatternSource {
	if width <= 0 {
		width = DefaultPatternWidth
	}
	if height <= 0 {
		height = DefaultPatternHeight
	}
	return &PatternSource{width: width, height: height}
}

// Name implements Source.
func (p *PatternSource) Name() string { return BackendPattern }

// Frames returns how many frames have been produced.
func (p *PatternSource) Frames() uint64 { return p.tick.Load() }

// Capture implements Source. A monitor with an explicit size crops the
// pattern to that region.
func (p *PatternSource) Capture(ctx context.Context, m Monitor) (*image.RGBA, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Width < 0 || m.Height < 0 {
		return nil, ErrInvalidMonitor
	}

	p.baseOnce.Do(p.renderBase)
	n := p.tick.Add(1)

	bounds := p.base.Bounds()
	if r := m.Rect(); !r.Empty() {
		bounds = r.Intersect(bounds)
		if bounds.Empty() {
			return nil, ErrInvalidMonitor
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		src := p.base.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		dst := img.PixOffset(0, y)
		copy(img.Pix[dst:dst+bounds.Dx()*4], p.base.Pix[src:src+bounds.Dx()*4])
	}

	// A bar sweeping left to right makes successive frames distinguishable.
	barW := max(4, img.Rect.Dx()/32)
	x0 := int(n*uint64(barW)) % max(1, img.Rect.Dx())
	bar := color.RGBA{R: 240, G: 148, B: 46, A: 255}
	for y := 0; y < img.Rect.Dy(); y++ {
		for x := x0; x < x0+barW && x < img.Rect.Dx(); x++ {
			img.SetRGBA(x, y, bar)
		}
	}

	return img, nil
}

func (p *PatternSource) renderBase() {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(x * 255 / p.width)
			img.Pix[i+1] = uint8(y * 255 / p.height)
			img.Pix[i+2] = 0x48
			img.Pix[i+3] = 0xFF
		}
	}
	p.base = img
}

// Close implements Source.
func (p *PatternSource) Close() error {
	p.closed.Store(true)
	return nil
}
