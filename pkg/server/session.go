package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/insightlink-dev/insightlink/pkg/capture"
	"github.com/insightlink-dev/insightlink/pkg/codec"
	"github.com/insightlink-dev/insightlink/pkg/watermark"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Status lines reported through Callbacks.OnStatusChanged.
const (
	StatusStopped = "Server stopped. Ready to start a new session."
	StatusPaused  = "Streaming paused."
	StatusResumed = "Streaming resumed."
)

// Options configures a Session. Only Source is required.
type Options struct {
	Config    *Config
	Source    capture.Source
	Codec     codec.Codec
	Overlay   watermark.Overlay
	Callbacks Callbacks
	Logger    *slog.Logger

	// Metrics may be nil to disable Prometheus collection.
	Metrics *Metrics

	// Tracer defaults to the global OpenTelemetry tracer provider.
	Tracer trace.Tracer

	// Now stamps watermarks. Default: time.Now.
	Now func() time.Time

	// LocalIP names the presenter in the LIVE status line. Default: LocalIP.
	LocalIP func() string
}

// Session is a presenter broadcast. It is Stopped until Start succeeds and
// can be started again after Stop.
type Session struct {
	config    *Config
	source    capture.Source
	codec     codec.Codec
	overlay   watermark.Overlay
	callbacks Callbacks
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	now       func() time.Time
	localIP   func() string

	registry *Registry

	// listen binds the viewer port. Tests replace it.
	listen func(network, address string) (net.Listener, error)

	// mu serializes Start, Stop, and TogglePause. Accessors read current
	// and paused without it so callbacks can use them.
	mu      sync.Mutex
	current atomic.Pointer[run]
	paused  atomic.Bool
}

// run is the state of one Start..Stop cycle.
type run struct {
	id        string
	profile   Profile
	ln        net.Listener
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	span   trace.Span
	wg     sync.WaitGroup
	frames atomic.Int64
}

// New creates a stopped Session.
func New(opts Options) *Session {
	config := opts.Config.Clone()
	config.applyDefaults()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		config:    config,
		source:    opts.Source,
		codec:     opts.Codec,
		overlay:   opts.Overlay,
		callbacks: opts.Callbacks,
		logger:    logger.With("component", "session"),
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		now:       opts.Now,
		localIP:   opts.LocalIP,
		listen:    net.Listen,
	}
	if s.codec == nil {
		s.codec = codec.NewJPEG()
	}
	if s.overlay == nil {
		s.overlay = watermark.NewTextOverlay()
	}
	if s.tracer == nil {
		s.tracer = defaultTracer()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.localIP == nil {
		s.localIP = LocalIP
	}
	s.registry = NewRegistry(s.callbacks.clientAdded, s.callbacks.clientRemoved, logger)
	return s
}

// Start binds the listener with the named quality profile and begins
// accepting viewers. It fails with ErrUnknownProfile, with a PortError
// wrapping ErrAlreadyRunning while a run is active, or with a PortError when
// the port cannot be bound. A failed Start leaves the session Stopped.
func (s *Session) Start(profileName string) error {
	profile, err := LookupProfile(profileName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if r := s.current.Load(); r != nil {
		s.mu.Unlock()
		return &PortError{Addr: r.ln.Addr().String(), Err: ErrAlreadyRunning}
	}
	if s.source == nil {
		s.mu.Unlock()
		return ErrNoSource
	}

	addr := s.config.Addr()
	ln, err := s.listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("listen failed", "addr", addr, "error", err)
		s.callbacks.fatalError("Port Error", fmt.Sprintf(
			"Port %d is already in use.\nPlease close other applications and try again.", s.config.Port))
		return &PortError{Addr: addr, Err: err}
	}

	r := &run{
		id:        uuid.NewString(),
		profile:   profile,
		ln:        ln,
		startedAt: s.now(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.ctx, r.span = startRunSpan(ctx, s.tracer, r.id, profile, ln.Addr().String())
	r.cancel = cancel

	s.paused.Store(false)
	s.metrics.setPaused(false)
	s.current.Store(r)

	r.wg.Add(1)
	go s.acceptLoop(r)
	s.mu.Unlock()

	port := ln.Addr().(*net.TCPAddr).Port
	s.logger.Info("session started",
		"run_id", r.id,
		"addr", ln.Addr().String(),
		"profile", profile.Key,
		"quality", profile.Quality,
		"delay", profile.Delay)
	s.callbacks.statusChanged("Server is LIVE on " + net.JoinHostPort(s.localIP(), strconv.Itoa(port)))
	return nil
}

// Stop ends the current run: it closes the listener and every viewer socket
// and waits for all loops to exit. Stop on a stopped session is a no-op.
// Callbacks fired during Stop must not call Start or Stop.
func (s *Session) Stop() {
	s.mu.Lock()
	r := s.current.Load()
	if r == nil {
		s.mu.Unlock()
		return
	}

	r.cancel()
	if err := r.ln.Close(); err != nil {
		s.logger.Debug("close listener", "error", err)
	}
	closed := s.registry.CloseAll()
	r.wg.Wait()

	s.current.Store(nil)
	s.paused.Store(false)
	s.metrics.setPaused(false)
	endSpan(r.span, r.frames.Load(), nil)
	s.mu.Unlock()

	s.logger.Info("session stopped",
		"run_id", r.id,
		"viewers_closed", closed,
		"frames", r.frames.Load(),
		"uptime", s.now().Sub(r.startedAt).Round(time.Millisecond))
	s.callbacks.statusChanged(StatusStopped)
}

// TogglePause flips between Running and Paused and returns the new paused
// value. Paused loops keep their viewers connected but send nothing.
func (s *Session) TogglePause() (bool, error) {
	s.mu.Lock()
	if s.current.Load() == nil {
		s.mu.Unlock()
		return false, ErrNotRunning
	}
	paused := !s.paused.Load()
	s.paused.Store(paused)
	s.metrics.setPaused(paused)
	s.mu.Unlock()

	if paused {
		s.logger.Info("streaming paused")
		s.callbacks.statusChanged(StatusPaused)
	} else {
		s.logger.Info("streaming resumed")
		s.callbacks.statusChanged(StatusResumed)
	}
	return paused, nil
}

// Kick disconnects the viewer at addr. Surrounding whitespace is ignored. A
// well-formed address that is not connected is not an error.
func (s *Session) Kick(addr string) error {
	addr = strings.TrimSpace(addr)
	if err := ValidateAddress(addr); err != nil {
		return err
	}
	if s.registry.CloseOne(addr) {
		s.metrics.kicked()
		s.logger.Info("viewer kicked", "client", addr)
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	if s.current.Load() == nil {
		return StateStopped
	}
	if s.paused.Load() {
		return StatePaused
	}
	return StateRunning
}

// Profile returns the active quality profile. ok is false when stopped.
func (s *Session) Profile() (p Profile, ok bool) {
	r := s.current.Load()
	if r == nil {
		return Profile{}, false
	}
	return r.profile, true
}

// Addr returns the bound listen address, or "" when stopped.
func (s *Session) Addr() string {
	r := s.current.Load()
	if r == nil {
		return ""
	}
	return r.ln.Addr().String()
}

// RunID returns the identifier of the current run, or "" when stopped.
func (s *Session) RunID() string {
	r := s.current.Load()
	if r == nil {
		return ""
	}
	return r.id
}

// Clients returns the connected viewer addresses, sorted.
func (s *Session) Clients() []string {
	return s.registry.Addresses()
}

// Registry returns the viewer roster.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Status is a point-in-time view of a Session.
type Status struct {
	State      string       `json:"state"`
	RunID      string       `json:"runId,omitempty"`
	Addr       string       `json:"addr,omitempty"`
	Profile    string       `json:"profile,omitempty"`
	Quality    int          `json:"quality,omitempty"`
	DelayMS    int64        `json:"delayMs,omitempty"`
	StartedAt  *time.Time   `json:"startedAt,omitempty"`
	FramesSent int64        `json:"framesSent"`
	Clients    []ClientInfo `json:"clients"`
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	st := Status{
		State:   s.State().String(),
		Clients: s.registry.Snapshot(),
	}
	if r := s.current.Load(); r != nil {
		started := r.startedAt
		st.RunID = r.id
		st.Addr = r.ln.Addr().String()
		st.Profile = r.profile.Key
		st.Quality = r.profile.Quality
		st.DelayMS = r.profile.Delay.Milliseconds()
		st.StartedAt = &started
		st.FramesSent = r.frames.Load()
	}
	return st
}

func (s *Session) acceptLoop(r *run) {
	defer r.wg.Done()

	for {
		conn, err := r.ln.Accept()
		if err != nil {
			if r.ctx.Err() != nil {
				return
			}
			s.logger.Error("accept failed", "run_id", r.id, "error", err)
			s.callbacks.fatalError("Server Error", err.Error())
			return
		}
		if r.ctx.Err() != nil {
			conn.Close()
			return
		}

		c := s.registry.Add(conn.RemoteAddr().String(), conn)
		r.wg.Add(1)
		go s.serveClient(r, c)
	}
}
