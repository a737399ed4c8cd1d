//go:build gst

package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// GstSource captures an X11 display through a GStreamer pipeline:
//
//	ximagesrc → videoconvert → videoscale → capsfilter(RGBA) → appsink
//
// The pipeline is built on the first Capture, for that call's monitor, and
// reused afterwards. The appsink keeps only the latest buffer so every
// caller gets a fresh frame.
type GstSource struct {
	opts Options

	mu       sync.Mutex
	pipeline *gst.Pipeline
	sink     *app.Sink
	monitor  Monitor
	started  bool
	closed   bool
}

func newGstSource(opts Options) (Source, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultPatternWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultPatternHeight
	}
	gst.Init(nil)
	return &GstSource{opts: opts}, nil
}

// Name implements Source.
func (g *GstSource) Name() string { return BackendGst }

// pullTimeout bounds one appsink pull so Capture can notice ctx and Close.
const pullTimeout = 100 * time.Millisecond

// Capture implements Source. It waits for the display to produce a frame
// until ctx is done. The sink is pulled without holding the lock, so Close
// does not wait behind a pending capture.
func (g *GstSource) Capture(ctx context.Context, m Monitor) (*image.RGBA, error) {
	sink, err := g.sinkFor(m)
	if err != nil {
		return nil, err
	}

	var sample *gst.Sample
	for sample == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g.isClosed() {
			return nil, ErrClosed
		}
		sample = sink.TryPullSample(pullTimeout)
		if sample == nil && sink.IsEOS() {
			return nil, fmt.Errorf("capture: gst: no sample (pipeline stopped)")
		}
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, fmt.Errorf("capture: gst: empty sample")
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	defer buffer.Unmap()

	want := g.opts.Width * g.opts.Height * 4
	if len(data) < want {
		return nil, fmt.Errorf("capture: gst: short buffer %d < %d", len(data), want)
	}

	// GStreamer reuses the buffer, so copy out.
	img := image.NewRGBA(image.Rect(0, 0, g.opts.Width, g.opts.Height))
	copy(img.Pix, data[:want])
	return img, nil
}

// sinkFor returns the appsink for m, building the pipeline on first use.
func (g *GstSource) sinkFor(m Monitor) (*app.Sink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrClosed
	}
	if !g.started {
		if err := g.build(m); err != nil {
			return nil, err
		}
	} else if m != g.monitor {
		return nil, fmt.Errorf("%w: pipeline already capturing %+v", ErrInvalidMonitor, g.monitor)
	}
	return g.sink, nil
}

func (g *GstSource) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

func (g *GstSource) build(m Monitor) error {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return fmt.Errorf("capture: gst: create pipeline: %w", err)
	}

	src, err := gst.NewElement("ximagesrc")
	if err != nil {
		return fmt.Errorf("%w: ximagesrc: %v", ErrBackendUnavailable, err)
	}
	src.SetProperty("use-damage", false)
	src.SetProperty("show-pointer", true)
	if g.opts.Display != "" {
		src.SetProperty("display-name", g.opts.Display)
	}
	if r := m.Rect(); !r.Empty() {
		src.SetProperty("startx", uint(r.Min.X))
		src.SetProperty("starty", uint(r.Min.Y))
		src.SetProperty("endx", uint(r.Max.X-1))
		src.SetProperty("endy", uint(r.Max.Y-1))
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("capture: gst: videoconvert: %w", err)
	}
	converter.SetProperty("n-threads", 0)

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return fmt.Errorf("capture: gst: videoscale: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("capture: gst: capsfilter: %w", err)
	}
	caps := fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d", g.opts.Width, g.opts.Height)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(caps))

	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("capture: gst: appsink: %w", err)
	}
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", 1)
	sink.SetProperty("drop", true)

	if err := pipeline.AddMany(src, converter, scaler, capsfilter, sink.Element); err != nil {
		return fmt.Errorf("capture: gst: add elements: %w", err)
	}
	if err := gst.ElementLinkMany(src, converter, scaler, capsfilter, sink.Element); err != nil {
		return fmt.Errorf("capture: gst: link elements: %w", err)
	}
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("capture: gst: start pipeline: %w", err)
	}

	slog.Info("capture: gst pipeline started", "caps", caps, "display", g.opts.Display)

	g.pipeline = pipeline
	g.sink = sink
	g.monitor = m
	g.started = true
	return nil
}

// Close implements Source.
func (g *GstSource) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true
	if g.pipeline != nil {
		if err := g.pipeline.SetState(gst.StateNull); err != nil {
			return fmt.Errorf("capture: gst: stop pipeline: %w", err)
		}
	}
	return nil
}
