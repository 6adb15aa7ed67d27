// Package server exposes the form engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-dynform/pkg/engine"
	"github.com/goliatone/go-dynform/pkg/metrics"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/store"
	"github.com/goliatone/go-dynform/pkg/submit"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// SchemaProvider supplies the default schema. *schemawatch.Watcher satisfies
// it.
type SchemaProvider interface {
	Schema() schema.Schema
}

// StaticSchema serves a fixed schema.
type StaticSchema schema.Schema

// Schema implements SchemaProvider.
func (s StaticSchema) Schema() schema.Schema {
	return schema.Schema(s)
}

// Server holds the handlers' dependencies.
type Server struct {
	engine      *engine.Engine
	schemas     SchemaProvider
	submitter   submit.Submitter
	store       store.SubmissionStore
	metrics     *metrics.Collector
	metricsPath string
	logger      zerolog.Logger
	sessions    *registry
	maxSessions int
	sessionIdle time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithEngine sets the engine shared by all requests and sessions.
func WithEngine(e *engine.Engine) Option {
	return func(s *Server) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithSchemaProvider sets where the default schema comes from.
func WithSchemaProvider(p SchemaProvider) Option {
	return func(s *Server) {
		s.schemas = p
	}
}

// WithSubmitter sets the destination for session submissions.
func WithSubmitter(sub submit.Submitter) Option {
	return func(s *Server) {
		s.submitter = sub
	}
}

// WithStore records every successful submission and enables
// /v1/submissions.
func WithStore(st store.SubmissionStore) Option {
	return func(s *Server) {
		s.store = st
	}
}

// WithMetrics exposes the collector at path and tracks live sessions.
func WithMetrics(collector *metrics.Collector, path string) Option {
	return func(s *Server) {
		s.metrics = collector
		if path != "" {
			s.metricsPath = path
		}
	}
}

// WithLogger sets the request and lifecycle logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSessionLimits bounds the session registry: at most limit live sessions,
// each dropped after idle without requests. Zero disables a bound.
func WithSessionLimits(limit int, idle time.Duration) Option {
	return func(s *Server) {
		s.maxSessions = limit
		s.sessionIdle = idle
	}
}

// New builds a Server.
func New(opts ...Option) *Server {
	s := &Server{
		engine:      engine.Default(),
		metricsPath: "/metrics",
		logger:      zerolog.Nop(),
		maxSessions: DefaultMaxSessions,
		sessionIdle: DefaultSessionIdleTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.sessions = newRegistry(s.metrics, s.maxSessions, s.sessionIdle)
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/schemas/decode", s.handleDecode)
		r.Get("/schema", s.handleDefaultSchema)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/fields/{field}", s.handleChangeField)
			r.Post("/submit", s.handleSubmit)
			r.Post("/reset", s.handleReset)
		})

		r.Get("/submissions", s.handleListSubmissions)
		r.Get("/submissions/{id}", s.handleGetSubmission)
	})

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) submitterFor(sc schema.Schema) submit.Submitter {
	var recorder submit.Submitter
	if s.store != nil {
		recorder = submit.NewStore(s.store, sc.Title)
	}
	return submit.Join(s.submitter, recorder)
}

func requestLogger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if r.URL.Path == "/healthz" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
