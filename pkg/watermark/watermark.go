// Package watermark burns the viewer identification text into frames.
package watermark

import (
	"image"
	"image/color"
	"image/draw"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TimestampLayout is the local timestamp format in the watermark text.
const TimestampLayout = "2006-01-02 15:04:05"

// Defaults for Overlay.
const (
	DefaultMinFontPx = 12

	// DefaultHeightRatio sizes the text relative to the frame height.
	DefaultHeightRatio = 0.03
)

// DefaultOrigin is the top-left corner of the watermark text.
var DefaultOrigin = image.Pt(15, 15)

// DefaultColor is white at 50% opacity.
var DefaultColor = color.NRGBA{R: 255, G: 255, B: 255, A: 128}

// Text returns the watermark for a viewer: "VIEWER: <ip> | <timestamp>".
func Text(viewerIP string, now time.Time) string {
	return "VIEWER: " + viewerIP + " | " + now.Format(TimestampLayout)
}

// Overlay composites text onto a raw frame in place.
type Overlay interface {
	Apply(dst *image.RGBA, text string, at image.Point)
}

// TextOverlay draws text with the built-in 7x13 bitmap face, scaled to the
// frame height.
type TextOverlay struct {
	Color       color.Color
	MinFontPx   int
	HeightRatio float64
}

// NewTextOverlay returns a TextOverlay with the default style.
func NewTextOverlay() *TextOverlay {
	return &TextOverlay{
		Color:       DefaultColor,
		MinFontPx:   DefaultMinFontPx,
		HeightRatio: DefaultHeightRatio,
	}
}

// FontPx returns the rendered glyph height for a frame of the given height.
func (o *TextOverlay) FontPx(frameHeight int) int {
	minPx := o.MinFontPx
	if minPx <= 0 {
		minPx = DefaultMinFontPx
	}
	ratio := o.HeightRatio
	if ratio <= 0 {
		ratio = DefaultHeightRatio
	}
	return max(minPx, int(float64(frameHeight)*ratio))
}

// Apply draws text onto dst with its top-left corner at at. Text that runs
// past the frame edge is clipped.
func (o *TextOverlay) Apply(dst *image.RGBA, text string, at image.Point) {
	if dst == nil || text == "" {
		return
	}

	mask := renderMask(text)
	if mask == nil {
		return
	}

	face := basicfont.Face7x13
	px := o.FontPx(dst.Rect.Dy())
	w := mask.Rect.Dx() * px / face.Height
	h := px
	if w <= 0 || h <= 0 {
		return
	}

	scaled := image.NewAlpha(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), xdraw.Src, nil)

	c := o.Color
	if c == nil {
		c = DefaultColor
	}
	r := scaled.Bounds().Add(dst.Rect.Min).Add(at)
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, scaled, image.Point{}, draw.Over)
}

// renderMask draws text at the face's native size into an alpha mask.
func renderMask(text string) *image.Alpha {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	width := d.MeasureString(text).Ceil()
	if width <= 0 {
		return nil
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, face.Height))
	d.Dst = mask
	d.Src = image.Opaque
	d.Dot = fixed.P(0, face.Ascent)
	d.DrawString(text)
	return mask
}
