// Package server exposes the control facade over HTTP and streams device
// state to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/linkctl/internal/control"
	"github.com/tessro/linkctl/internal/core"
	lerrors "github.com/tessro/linkctl/internal/errors"
	"github.com/tessro/linkctl/internal/session"
)

// DefaultAddr is used when Options leaves Addr empty.
const DefaultAddr = "127.0.0.1:8787"

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Addr   string
	Logger *zap.Logger
}

// Server serves one session manager.
type Server struct {
	m      *session.Manager
	addr   string
	log    *zap.Logger
	router chi.Router
}

// New builds a server over m. Nothing listens until Run.
func New(m *session.Manager, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		m:    m,
		addr: opts.Addr,
		log:  opts.Logger.Named("server"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/api/devices", func(r chi.Router) {
		r.Get("/", s.listDevices)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getDevice)
			r.Get("/ws", s.streamDevice)

			r.Post("/play", s.command(func(ctx context.Context, f *control.Facade) error { return f.Play(ctx) }))
			r.Post("/pause", s.command(func(ctx context.Context, f *control.Facade) error { return f.Pause(ctx) }))
			r.Post("/stop", s.command(func(ctx context.Context, f *control.Facade) error { return f.Stop(ctx) }))
			r.Post("/next", s.command(func(ctx context.Context, f *control.Facade) error { return f.Next(ctx) }))
			r.Post("/prev", s.command(func(ctx context.Context, f *control.Facade) error { return f.Prev(ctx) }))

			r.Put("/source", s.setSource)
			r.Put("/shuffle", s.setShuffle)
			r.Put("/repeat", s.setRepeat)
			r.Put("/seek", s.seek)
		})
	})
	return r
}

// Run drives the session and serves HTTP until ctx ends, then shuts the
// listener down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.m.Run(ctx) })
	g.Go(func() error {
		s.log.Info("serving", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.m.Registry().States())
}

func (s *Server) getDevice(w http.ResponseWriter, r *http.Request) {
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	state, err := f.CurrentState()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) command(fn func(context.Context, *control.Facade) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := s.facade(w, r)
		if !ok {
			return
		}
		s.finish(w, r, f, fn(r.Context(), f))
	}
}

type sourceRequest struct {
	Name string `json:"name"`
}

func (s *Server) setSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "name is required"})
		return
	}
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	s.finish(w, r, f, f.SetSource(r.Context(), req.Name))
}

type shuffleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) setShuffle(w http.ResponseWriter, r *http.Request) {
	var req shuffleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "enabled is required"})
		return
	}
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	s.finish(w, r, f, f.SetShuffle(r.Context(), *req.Enabled))
}

type repeatRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) setRepeat(w http.ResponseWriter, r *http.Request) {
	var req repeatRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := core.ParseRepeatMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	s.finish(w, r, f, f.SetRepeat(r.Context(), mode))
}

type seekRequest struct {
	Position *float64 `json:"position"`
}

func (s *Server) seek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Position == nil || *req.Position < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "position must be a non-negative number of seconds"})
		return
	}
	f, ok := s.facade(w, r)
	if !ok {
		return
	}
	pos := time.Duration(*req.Position * float64(time.Second))
	s.finish(w, r, f, f.Seek(r.Context(), pos))
}

// facade resolves the {id} URL parameter. It writes the error response and
// returns false when the device is unknown.
func (s *Server) facade(w http.ResponseWriter, r *http.Request) (*control.Facade, bool) {
	f, err := s.m.Facade(chi.URLParam(r, "id"), true)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return f, true
}

// finish reports a command outcome. Successful commands answer with the
// state as it stands after the command.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, f *control.Facade, err error) {
	if err != nil {
		s.log.Debug("command failed",
			zap.String("device", f.DeviceID()),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.writeError(w, err)
		return
	}
	state, _ := f.CurrentState()
	writeJSON(w, http.StatusOK, state)
}

type errorBody struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch lerrors.Kind(err) {
	case lerrors.KindUnsupported:
		return http.StatusConflict
	case lerrors.KindNotFound:
		return http.StatusNotFound
	case lerrors.KindStale:
		return http.StatusServiceUnavailable
	case lerrors.KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Warn("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{
		Error:      err.Error(),
		Kind:       lerrors.Kind(err),
		Suggestion: lerrors.GetSuggestion(err),
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
