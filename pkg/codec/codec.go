// Package codec encodes screen frames for the wire and decodes them on the
// viewer.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/png" // Register PNG decoder
)

// Quality bounds accepted by Encode. 0 is treated as the lowest quality.
const (
	MinQuality = 0
	MaxQuality = 100
)

// MIMETypeJPEG is the payload type carried by InsightLink frames.
const MIMETypeJPEG = "image/jpeg"

var (
	// ErrEmptyImage is returned when there is nothing to encode or decode.
	ErrEmptyImage = errors.New("codec: empty image")

	// ErrInvalidQuality is returned for a quality outside 0..100.
	ErrInvalidQuality = errors.New("codec: quality out of range")
)

// Codec converts between images and wire payloads.
type Codec interface {
	Encode(img image.Image, quality int) ([]byte, error)
	Decode(data []byte) (image.Image, error)
}

// JPEG is the default Codec.
type JPEG struct{}

// NewJPEG returns the JPEG codec.
func NewJPEG() JPEG { return JPEG{} }

// Encode encodes img as JPEG at the given quality (0..100).
func (JPEG) Encode(img image.Image, quality int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if quality < MinQuality || quality > MaxQuality {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}

	// image/jpeg accepts 1..100.
	q := max(quality, 1)

	var buf bytes.Buffer
	buf.Grow(img.Bounds().Dx() * img.Bounds().Dy() / 4)
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("codec: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decodes a JPEG (or PNG) payload.
func (JPEG) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	return img, nil
}
