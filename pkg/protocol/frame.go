package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the length prefix in bytes.
	FrameHeaderSize = 8

	// MaxPayloadSize is the largest payload a peer may send or accept (10 MiB).
	MaxPayloadSize = 10 * 1024 * 1024
)

// Frame errors.
var (
	// ErrFrameTooLarge is returned when a payload exceeds the configured maximum.
	// On the receive side the payload is never read.
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")

	// ErrEndOfStream is returned when the peer closed the stream, either cleanly
	// between frames or part way through one.
	ErrEndOfStream = errors.New("protocol: end of stream")

	// ErrConnectionLost wraps any other I/O failure on an established connection.
	ErrConnectionLost = errors.New("protocol: connection lost")
)

// Frame is one length-prefixed message.
//
// Wire format (8 bytes header + variable payload):
//
//	┌───────────────────────────────────────────────────────────┐
//	│ Payload Length (8 bytes, unsigned, big-endian)            │
//	└───────────────────────────────────────────────────────────┘
//	│                                                           │
//	│  Payload (encoded image bytes)                            │
//	│                                                           │
//	└───────────────────────────────────────────────────────────┘
type Frame struct {
	Payload []byte
}

// Len returns the encoded size of the frame including the header.
func (f *Frame) Len() int {
	return FrameHeaderSize + len(f.Payload)
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	buf := make([]byte, f.Len())
	binary.BigEndian.PutUint64(buf[:FrameHeaderSize], uint64(len(f.Payload)))
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// EncodeFrame prepends the 8-byte length to payload.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	f := Frame{Payload: payload}
	return f.Encode(), nil
}

// DecodeFrameHeader decodes the declared payload length from a header.
func DecodeFrameHeader(data []byte) (uint64, error) {
	if len(data) < FrameHeaderSize {
		return 0, io.ErrUnexpectedEOF
	}
	return binary.BigEndian.Uint64(data[:FrameHeaderSize]), nil
}

// WriteFrame writes one complete frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}

	var header [FrameHeaderSize]byte
	binary.BigEndian.PutUint64(header[:], uint64(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	return nil
}

// ReadFrame reads one complete frame from r using MaxPayloadSize.
func ReadFrame(r io.Reader) ([]byte, error) {
	return readFrame(r, MaxPayloadSize)
}

// Reader reads frames from a stream with a configurable payload bound.
type Reader struct {
	r          io.Reader
	maxPayload uint64
}

// NewReader returns a Reader. A maxPayload of zero or one above
// MaxPayloadSize is clamped to MaxPayloadSize.
func NewReader(r io.Reader, maxPayload int) *Reader {
	if maxPayload <= 0 || maxPayload > MaxPayloadSize {
		maxPayload = MaxPayloadSize
	}
	return &Reader{r: r, maxPayload: uint64(maxPayload)}
}

// ReadFrame reads the next frame payload.
func (fr *Reader) ReadFrame() ([]byte, error) {
	return readFrame(fr.r, fr.maxPayload)
}

func readFrame(r io.Reader, limit uint64) ([]byte, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, streamError(err)
	}

	length := binary.BigEndian.Uint64(header[:])
	if length > limit {
		return nil, fmt.Errorf("%w: declared %d bytes, limit %d", ErrFrameTooLarge, length, limit)
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, streamError(err)
		}
	}
	return payload, nil
}

// streamError maps a read failure onto the protocol taxonomy.
func streamError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrEndOfStream
	}
	return fmt.Errorf("%w: %w", ErrConnectionLost, err)
}

// IsDisconnect reports whether err ends a connection.
func IsDisconnect(err error) bool {
	return errors.Is(err, ErrEndOfStream) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrFrameTooLarge)
}
