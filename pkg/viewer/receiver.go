package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/insightlink-dev/insightlink/pkg/codec"
	"github.com/insightlink-dev/insightlink/pkg/protocol"
)

// Renderer displays decoded frames. Render is called from the receiver
// goroutine in arrival order; Disconnected is called once when the stream
// ends.
type Renderer interface {
	Render(img image.Image) error
	Disconnected(err error)
}

// RendererFuncs adapts plain functions to Renderer. Nil fields are no-ops.
type RendererFuncs struct {
	OnRender     func(img image.Image) error
	OnDisconnect func(err error)
}

// Render implements Renderer.
func (f RendererFuncs) Render(img image.Image) error {
	if f.OnRender == nil {
		return nil
	}
	return f.OnRender(img)
}

// Disconnected implements Renderer.
func (f RendererFuncs) Disconnected(err error) {
	if f.OnDisconnect != nil {
		f.OnDisconnect(err)
	}
}

// ReceiverOptions configures a Receiver. The zero value is usable.
type ReceiverOptions struct {
	// MaxFrameSize bounds accepted payloads.
	// Default: protocol.MaxPayloadSize.
	MaxFrameSize int

	// Codec decodes payloads. Default: codec.NewJPEG().
	Codec codec.Codec

	Logger *slog.Logger
}

// Receiver reads frames from one presenter connection.
type Receiver struct {
	conn     net.Conn
	reader   *protocol.Reader
	codec    codec.Codec
	renderer Renderer
	logger   *slog.Logger

	frames         atomic.Int64
	decodeFailures atomic.Int64
	bytes          atomic.Int64
}

// NewReceiver creates a Receiver for conn.
func NewReceiver(conn net.Conn, renderer Renderer, opts ReceiverOptions) *Receiver {
	if opts.Codec == nil {
		opts.Codec = codec.NewJPEG()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if renderer == nil {
		renderer = RendererFuncs{}
	}
	return &Receiver{
		conn:     conn,
		reader:   protocol.NewReader(conn, opts.MaxFrameSize),
		codec:    opts.Codec,
		renderer: renderer,
		logger:   opts.Logger.With("component", "receiver", "server", conn.RemoteAddr().String()),
	}
}

// Run receives until the stream ends, a frame is rejected, the renderer
// fails, or ctx is cancelled. It always closes the connection and reports
// the cause to Renderer.Disconnected before returning it.
func (r *Receiver) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		r.conn.Close()
	})
	defer stop()

	err := r.loop(ctx)
	r.conn.Close()

	r.logger.Info("receiver stopped",
		"frames", r.frames.Load(),
		"decode_failures", r.decodeFailures.Load(),
		"reason", err)
	r.renderer.Disconnected(err)
	return err
}

func (r *Receiver) loop(ctx context.Context) error {
	for {
		data, err := r.reader.ReadFrame()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		r.bytes.Add(int64(len(data)))

		img, err := r.codec.Decode(data)
		if err != nil {
			r.decodeFailures.Add(1)
			r.logger.Warn("skipping frame",
				"size", len(data),
				"error", fmt.Errorf("%w: %w", ErrDecodeFailure, err))
			continue
		}
		r.frames.Add(1)

		if err := r.renderer.Render(img); err != nil {
			return fmt.Errorf("viewer: render: %w", err)
		}
	}
}

// Stats is a snapshot of receiver counters.
type Stats struct {
	Frames         int64
	DecodeFailures int64
	Bytes          int64
}

// Stats returns the receiver counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Frames:         r.frames.Load(),
		DecodeFailures: r.decodeFailures.Load(),
		Bytes:          r.bytes.Load(),
	}
}

// DisconnectReason turns a Run error into a line for the viewer's user.
func DisconnectReason(err error) string {
	switch {
	case err == nil:
		return "Disconnected."
	case errors.Is(err, context.Canceled):
		return "Viewer closed."
	case errors.Is(err, protocol.ErrEndOfStream):
		return "The presenter ended the session or disconnected you."
	case errors.Is(err, protocol.ErrFrameTooLarge):
		return "Received an oversized frame. Connection closed."
	case errors.Is(err, protocol.ErrConnectionLost):
		return "Connection to the presenter was lost."
	default:
		return "Disconnected: " + err.Error()
	}
}
