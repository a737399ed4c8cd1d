package admin

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insightlink-dev/insightlink/internal/errors"
	"github.com/insightlink-dev/insightlink/pkg/server"
)

// Controller is the session surface the API drives. *server.Session
// implements it.
type Controller interface {
	Start(profile string) error
	Stop()
	TogglePause() (bool, error)
	Kick(addr string) error
	Status() server.Status
}

var _ Controller = (*server.Session)(nil)

// Options configures a Server. Only Controller is required.
type Options struct {
	Controller Controller

	// DefaultProfile is started when POST /session/start names no profile.
	// Empty leaves the choice to the Controller.
	DefaultProfile string

	// Hub serves /events when set.
	Hub *Hub

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger

	// ShutdownTimeout bounds graceful shutdown. Default: 5s.
	ShutdownTimeout time.Duration
}

// Server is the admin HTTP API.
type Server struct {
	ctl             Controller
	defaultProfile  string
	hub             *Hub
	logger          *slog.Logger
	shutdownTimeout time.Duration
	router          chi.Router
}

// New builds the router.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ctl:             opts.Controller,
		defaultProfile:  opts.DefaultProfile,
		hub:             opts.Hub,
		logger:          logger.With("component", "admin"),
		shutdownTimeout: opts.ShutdownTimeout,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 5 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/status", s.handleStatus)
	r.Get("/profiles", s.handleProfiles)
	r.Get("/clients", s.handleClients)
	r.Delete("/clients/{addr}", s.handleKick)
	r.Route("/session", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Post("/stop", s.handleStop)
		r.Post("/pause", s.handlePause)
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.Hub != nil {
		r.Handle("/events", opts.Hub)
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("admin API listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// profileInfo is the JSON form of a quality preset.
type profileInfo struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	Quality int     `json:"quality"`
	DelayMS int64   `json:"delayMs"`
	FPS     float64 `json:"fps"`
}

type startRequest struct {
	Profile string `json:"profile"`
}

type pauseResponse struct {
	Paused bool `json:"paused"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	ps := server.Profiles()
	out := make([]profileInfo, len(ps))
	for i, p := range ps {
		out[i] = profileInfo{
			Key:     p.Key,
			Name:    p.Name,
			Quality: p.Quality,
			DelayMS: p.Delay.Milliseconds(),
			FPS:     p.FPS(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Status().Clients)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	if profile == "" && r.Body != nil {
		var req startRequest
		err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req)
		if err != nil && !stderrors.Is(err, io.EOF) {
			writeError(w, errors.Newf(errors.CategoryValidation, "request body is not valid JSON: %v", err))
			return
		}
		profile = req.Profile
	}
	if profile == "" {
		profile = s.defaultProfile
	}

	if err := s.ctl.Start(profile); err != nil {
		s.logger.Warn("start via API failed", "profile", profile, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.ctl.Stop()
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	paused, err := s.ctl.TogglePause()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pauseResponse{Paused: paused})
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	addr, err := url.PathUnescape(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, errors.New(errors.CodeInvalidAddress).Wrap(err))
		return
	}
	if err := s.ctl.Kick(strings.TrimSpace(addr)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errors.Classify(err))
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Category == errors.CategoryValidation {
		return http.StatusBadRequest
	}

	switch {
	case stderrors.Is(err, server.ErrUnknownProfile),
		stderrors.Is(err, server.ErrInvalidAddress):
		return http.StatusBadRequest
	case stderrors.Is(err, server.ErrAlreadyRunning),
		stderrors.Is(err, server.ErrNotRunning):
		return http.StatusConflict
	case stderrors.Is(err, server.ErrPortUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
