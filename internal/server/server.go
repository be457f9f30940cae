// internal/server/server.go
//
// HTTP front of the task store. Lifecycle (listen, serve in the
// background, graceful shutdown) is separated from the handlers so tests
// can exercise routes without binding a socket.

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/server/storage"
)

const (
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 15 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Status reports the server lifecycle state.
type Status string

const (
	StatusStarting Status = "starting"
	StatusReady    Status = "ready"
	StatusDraining Status = "draining"
)

// Server serves the task CRUD API over HTTP.
type Server struct {
	addr  string
	repo  storage.Repository
	log   zerolog.Logger
	clock func() time.Time

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	status   Status
	started  time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New prepares a server bound to addr and backed by repo.
func New(addr string, repo storage.Repository, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		repo:   repo,
		log:    zerolog.Nop(),
		clock:  func() time.Time { return time.Now().UTC() },
		status: StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the TCP listener and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("server: already started")
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	s.listener = listener
	s.started = s.clock()
	srv := &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
	if ctx != nil {
		srv.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = srv
	s.status = StatusReady
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("serve error")
		}
	}()
	s.log.Info().Str("addr", listener.Addr().String()).Msg("listening")
	return nil
}

// Shutdown stops accepting new connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	s.status = StatusDraining
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return "http://" + s.addr
	}
	return "http://" + addr
}

// Status reports the server lifecycle state.
func (s *Server) CurrentStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Routes builds the router serving the task API.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/tasks", s.handleListTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", s.handleCreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}", s.handleGetTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}", s.handleUpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{taskID}", s.handleDeleteTask).Methods(http.MethodDelete)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", s.clock().Sub(start)).
			Msg("request")
	})
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.started).Seconds())
}
