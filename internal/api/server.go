// Package api exposes the checklist workflow over HTTP with a uniform
// response envelope.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/havenclean/internal/checklist"
	ferrors "git.home.luguber.info/inful/havenclean/internal/foundation/errors"
	"git.home.luguber.info/inful/havenclean/internal/metrics"
)

// Server represents the API server.
type Server struct {
	Addr           string
	router         *chi.Mux
	server         *http.Server
	checklists     *checklist.Service
	recorder       metrics.Recorder
	metricsHandler http.Handler
}

// Option configures optional server wiring.
type Option func(*Server)

// WithRecorder attaches an observability recorder for request durations.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithMetricsHandler mounts a handler at /metrics (typically the Prometheus
// exposition endpoint).
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// NewServer creates a new API server around the checklist service.
func NewServer(addr string, svc *checklist.Service, opts ...Option) *Server {
	s := &Server{
		Addr:       addr,
		router:     chi.NewRouter(),
		checklists: svc,
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.recorder))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", s.handleHealth)
	if s.metricsHandler != nil {
		s.router.Handle("/metrics", s.metricsHandler)
	}

	// Checklist routes
	s.router.Get("/checklist", s.handleGetChecklist)
	s.router.Patch("/checklist/tasks/{taskId}", s.handleToggleTask)
	s.router.Post("/checklist/save", s.handleSaveChecklist)
	s.router.Post("/checklist/submit", s.handleSubmitChecklist)
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Response represents a standard API response.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a success response.
func (s *Server) Success(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := Response{
		Success: true,
		Data:    data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	s.errorWithData(w, code, message, nil)
}

func (s *Server) errorWithData(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := Response{
		Success: false,
		Error:   message,
		Data:    data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// serviceError maps a classified service error onto the response envelope.
// Rejected submissions carry the live incomplete count in the data field so
// staff devices can show it without a follow-up fetch.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	code := ferrors.StatusCodeFor(err)
	var data any
	if c, ok := ferrors.AsClassified(err); ok {
		if n, ok := c.Context()[checklist.IncompleteCountKey]; ok {
			data = map[string]any{"incompleteCount": n}
		}
	}
	s.errorWithData(w, code, ferrors.PublicMessage(err), data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
