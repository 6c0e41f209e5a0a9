/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/metrics"
)

const (
	defaultRateLimit = 60
	shutdownTimeout  = 10 * time.Second
)

// Options configures the API server.
type Options struct {
	ListenAddr string
	Secret     string
	// Mode is ModeAsync (default) or ModeSync.
	Mode string
	// RateLimitPerMinute caps task submissions per client IP. Negative
	// disables the limit; zero selects the default.
	RateLimitPerMinute int

	Pipeline TaskPipeline
	Queue    TaskQueue
	Events   *EventHub
	Metrics  *metrics.Metrics
	Logger   logr.Logger
}

// Server is the pagesmith HTTP front end.
type Server struct {
	opts    Options
	handler http.Handler
	log     logr.Logger
}

// NewServer builds the router. Pipeline and Queue are required.
func NewServer(opts Options) (*Server, error) {
	if opts.Pipeline == nil || opts.Queue == nil {
		return nil, errors.New("api: pipeline and queue are required")
	}
	if opts.Mode == "" {
		opts.Mode = ModeAsync
	}
	if opts.Mode != ModeAsync && opts.Mode != ModeSync {
		return nil, fmt.Errorf("api: invalid mode %q", opts.Mode)
	}
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = defaultRateLimit
	}
	if opts.Events == nil {
		opts.Events = NewEventHub(0)
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}

	s := &Server{opts: opts, log: opts.Logger.WithName("api")}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	tasks := &taskHandler{
		pipeline: s.opts.Pipeline,
		queue:    s.opts.Queue,
		verifier: NewSecretVerifier(s.opts.Secret),
		mode:     s.opts.Mode,
		logger:   s.log.WithName("task"),
	}
	events := &eventsHandler{hub: s.opts.Events, logger: s.log.WithName("events")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", serveRoot)
	r.Head("/", serveRootHead)
	r.Get("/healthz", serveHealthz)
	r.Get("/readyz", serveReadyz(s.opts.Queue.Ready))
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if s.opts.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimitPerMinute, time.Minute))
		}
		r.Post("/task", tasks.submitTask)
		r.Post("/api-endpoint", tasks.submitTask)
	})
	r.Get("/tasks/{jobID}/events", events.streamEvents)

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Name implements the module interface.
func (s *Server) Name() string { return "api" }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.ListenAddr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting API server", "addr", s.opts.ListenAddr, "mode", s.opts.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}
