package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantLen int // expected total length including header
	}{
		{
			name:    "empty_payload",
			payload: []byte{},
			wantLen: FrameHeaderSize,
		},
		{
			name:    "small_payload",
			payload: []byte{0xFF, 0xD8, 0xFF, 0xE0},
			wantLen: FrameHeaderSize + 4,
		},
		{
			name:    "one_kib",
			payload: bytes.Repeat([]byte{0xAB}, 1024),
			wantLen: FrameHeaderSize + 1024,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := EncodeFrame(tc.payload)
			if err != nil {
				t.Fatalf("EncodeFrame() error = %v", err)
			}
			if len(encoded) != tc.wantLen {
				t.Errorf("EncodeFrame() length = %d, want %d", len(encoded), tc.wantLen)
			}

			length, err := DecodeFrameHeader(encoded)
			if err != nil {
				t.Fatalf("DecodeFrameHeader() error = %v", err)
			}
			if length != uint64(len(tc.payload)) {
				t.Errorf("header length = %d, want %d", length, len(tc.payload))
			}

			decoded, err := ReadFrame(bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("ReadFrame() error = %v", err)
			}
			if !bytes.Equal(decoded, tc.payload) {
				t.Errorf("ReadFrame() payload mismatch")
			}
		})
	}
}

func TestDecodeFrameHeaderBigEndian(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03}

	length, err := DecodeFrameHeader(data)
	if err != nil {
		t.Fatalf("DecodeFrameHeader() error = %v", err)
	}
	if length != 0x010203 {
		t.Errorf("length = %#x, want 0x010203", length)
	}

	if _, err := DecodeFrameHeader(data[:7]); err != io.ErrUnexpectedEOF {
		t.Errorf("short header: got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadWriteFrameRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 7, 8, 9, 4096, 1 << 20, MaxPayloadSize}

	for _, n := range sizes {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i * 31)
		}

		var buf bytes.Buffer
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame(%d) error = %v", n, err)
		}
		if buf.Len() != FrameHeaderSize+n {
			t.Fatalf("WriteFrame(%d) wrote %d bytes, want %d", n, buf.Len(), FrameHeaderSize+n)
		}

		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame(%d) error = %v", n, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("ReadFrame(%d) payload mismatch", n)
		}
		if buf.Len() != 0 {
			t.Fatalf("ReadFrame(%d) left %d unread bytes", n, buf.Len())
		}
	}
}

func TestReadFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	frames := [][]byte{[]byte("one"), []byte("two"), {}, []byte("four")}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}

	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("frame %d: ReadFrame() error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d = %q, want %q", i, got, want)
		}
	}

	if _, err := ReadFrame(&buf); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("after last frame: got %v, want ErrEndOfStream", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("WriteFrame() error = %v, want ErrFrameTooLarge", err)
	}
	if buf.Len() != 0 {
		t.Errorf("WriteFrame() wrote %d bytes for an oversize payload", buf.Len())
	}

	if _, err := EncodeFrame(make([]byte, MaxPayloadSize+1)); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("EncodeFrame() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	tests := []struct {
		name   string
		length uint64
	}{
		{"one_over", MaxPayloadSize + 1},
		{"huge", 1 << 40},
		{"max_uint64", ^uint64(0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// An oversize header followed by a valid frame. Rejection must not
			// consume anything past the header.
			var buf bytes.Buffer
			var header [FrameHeaderSize]byte
			binary.BigEndian.PutUint64(header[:], tc.length)
			buf.Write(header[:])
			if err := WriteFrame(&buf, []byte("next")); err != nil {
				t.Fatalf("WriteFrame() error = %v", err)
			}

			_, err := ReadFrame(&buf)
			if !errors.Is(err, ErrFrameTooLarge) {
				t.Fatalf("ReadFrame() error = %v, want ErrFrameTooLarge", err)
			}

			got, err := ReadFrame(&buf)
			if err != nil {
				t.Fatalf("independent ReadFrame() error = %v", err)
			}
			if string(got) != "next" {
				t.Errorf("independent ReadFrame() = %q, want %q", got, "next")
			}
		})
	}
}

func TestReaderCustomLimit(t *testing.T) {
	var buf bytes.Buffer
	WriteFrame(&buf, make([]byte, 100))

	r := NewReader(&buf, 64)
	if _, err := r.ReadFrame(); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("ReadFrame() error = %v, want ErrFrameTooLarge", err)
	}

	if got := NewReader(nil, 0).maxPayload; got != MaxPayloadSize {
		t.Errorf("zero limit clamped to %d, want %d", got, MaxPayloadSize)
	}
	if got := NewReader(nil, MaxPayloadSize*2).maxPayload; got != MaxPayloadSize {
		t.Errorf("oversize limit clamped to %d, want %d", got, MaxPayloadSize)
	}
}

func TestReadFrameEndOfStream(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short_header", []byte{0x00, 0x00, 0x00}},
		{"short_payload", []byte{0, 0, 0, 0, 0, 0, 0, 10, 'a', 'b'}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadFrame(bytes.NewReader(tc.data))
			if !errors.Is(err, ErrEndOfStream) {
				t.Errorf("ReadFrame() error = %v, want ErrEndOfStream", err)
			}
			if !IsDisconnect(err) {
				t.Errorf("IsDisconnect(%v) = false", err)
			}
		})
	}
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, io.ErrClosedPipe
	}
	w.after--
	return len(p), nil
}

func TestWriteFrameConnectionLost(t *testing.T) {
	for _, after := range []int{0, 1} {
		err := WriteFrame(&failingWriter{after: after}, []byte("payload"))
		if !errors.Is(err, ErrConnectionLost) {
			t.Errorf("after=%d: error = %v, want ErrConnectionLost", after, err)
		}
		if !errors.Is(err, io.ErrClosedPipe) {
			t.Errorf("after=%d: cause not preserved: %v", after, err)
		}
	}
}

func TestReadFrameClosedConn(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		_, err := ReadFrame(client)
		done <- err
	}()

	server.Close()

	if err := <-done; !IsDisconnect(err) {
		t.Errorf("ReadFrame() on closed pipe = %v, want a disconnect error", err)
	}
}
