package server

import (
	"context"
	"time"

	"github.com/insightlink-dev/insightlink/pkg/protocol"
	"github.com/insightlink-dev/insightlink/pkg/watermark"
)

// serveClient runs the production loop for one viewer and cleans up after
// it. Only this viewer's entry is removed from the registry.
func (s *Session) serveClient(r *run, c *Client) {
	defer r.wg.Done()

	addr := c.Addr()
	logger := s.logger.With("client", addr, "run_id", r.id)
	ctx, span := startStreamSpan(r.ctx, s.tracer, addr)

	s.metrics.viewerConnected()
	logger.Info("viewer connected")

	var frames int64
	err := s.stream(ctx, r, c, hostOnly(addr), &frames)

	c.close()
	s.registry.removeClient(c)
	s.metrics.viewerDisconnected()
	r.frames.Add(frames)
	endSpan(span, frames, err)

	if err != nil {
		logger.Warn("viewer stream ended", "frames", frames, "error", err)
		return
	}
	logger.Info("viewer disconnected", "frames", frames)
}

// stream sends frames to c until the run ends, c leaves the roster, or a
// capture, encode, or write step fails. Errors caused by the run ending or
// by a kick are not reported.
func (s *Session) stream(ctx context.Context, r *run, c *Client, host string, frames *int64) error {
	done := func() bool {
		return ctx.Err() != nil || !c.Alive()
	}

	for {
		if done() {
			return nil
		}

		if s.paused.Load() {
			if !s.sleep(ctx, c, s.config.PausePollInterval) {
				return nil
			}
			continue
		}

		img, err := s.source.Capture(ctx, s.config.Monitor)
		if err != nil {
			if done() {
				return nil
			}
			s.metrics.streamError(StageCapture)
			return &ClientError{Addr: c.Addr(), Stage: StageCapture, Err: err}
		}

		start := time.Now()
		s.overlay.Apply(img, watermark.Text(host, s.now()), s.config.WatermarkOrigin)
		data, err := s.codec.Encode(img, r.profile.Quality)
		if err != nil {
			s.metrics.streamError(StageEncode)
			return &ClientError{Addr: c.Addr(), Stage: StageEncode, Err: err}
		}
		s.metrics.encoded(time.Since(start))

		// A kick, stop, or pause that landed during capture and encode drops
		// the frame here. One already mid-write fails on the closed socket.
		if done() {
			return nil
		}
		if s.paused.Load() {
			continue
		}
		if s.config.WriteTimeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		}
		if err := protocol.WriteFrame(c.conn, data); err != nil {
			if done() {
				return nil
			}
			s.metrics.streamError(StageWrite)
			return &ClientError{Addr: c.Addr(), Stage: StageWrite, Err: err}
		}
		*frames++
		s.metrics.frameSent(len(data))

		if !s.sleep(ctx, c, r.profile.Delay) {
			return nil
		}
	}
}

// sleep waits for d. It returns false early if the run ends or the client
// is closed.
func (s *Session) sleep(ctx context.Context, c *Client, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-c.Done():
		return false
	case <-t.C:
		return true
	}
}
