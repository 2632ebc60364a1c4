// Package server exposes sessions, tools and the agent over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/agent"
	"github.com/KaramelBytes/dataloom-cli/internal/mcpserver"
	"github.com/KaramelBytes/dataloom-cli/internal/metrics"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultMaxUploadBytes  = 32 << 20
	defaultShutdownTimeout = 30 * time.Second
	maxToolArgsBytes       = 1 << 20
)

type Config struct {
	Registry *tools.Registry
	Env      tools.Env
	// Agent answers chat messages. When nil the messages endpoint reports
	// 503 and every other route still works.
	Agent *agent.Agent

	SessionTTL      time.Duration
	Clock           clockwork.Clock
	Version         string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

type Server struct {
	log      *slog.Logger
	cfg      Config
	reg      *tools.Registry
	agent    *agent.Agent
	sessions *tools.Sessions[*agent.Conversation]
	mcp      *mcpserver.Server
	mcpWS    *tools.Workspace
	router   chi.Router
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = tools.Default(cfg.Logger)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Env.Logger == nil {
		cfg.Env.Logger = cfg.Logger
	}

	s := &Server{
		log:   cfg.Logger,
		cfg:   cfg,
		reg:   cfg.Registry,
		agent: cfg.Agent,
		mcpWS: cfg.Env.NewWorkspace(),
	}
	s.sessions = tools.NewSessions(func() *agent.Conversation {
		return agent.NewConversation(cfg.Env.NewWorkspace())
	}, tools.SessionOptions[*agent.Conversation]{
		TTL:     cfg.SessionTTL,
		Clock:   cfg.Clock,
		Logger:  cfg.Logger,
		Release: func(c *agent.Conversation) { c.Workspace.Close() },
	})
	s.mcp = mcpserver.New(s.reg, s.mcpWS, cfg.Version, cfg.Logger)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok\n")); err != nil {
			s.log.Error("failed to write healthz response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/mcp", s.mcp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/tools", s.listTools)
		r.Post("/uploads", s.upload)
		r.Get("/outputs/{file}", s.output)

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", s.deleteSession)
			r.Post("/messages", s.sendMessage)
			r.Post("/tools/{tool}", s.invokeTool)
			r.Get("/datasets", s.listDatasets)
			r.Delete("/datasets", s.clearDatasets)
		})
	})
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions exposes the live session table.
func (s *Server) Sessions() *tools.Sessions[*agent.Conversation] { return s.sessions }

// Close releases the workspace shared by MCP clients.
func (s *Server) Close() {
	s.mcpWS.Close()
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.sessions.Run(sweepCtx, time.Minute)

	serveErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- fmt.Errorf("failed to listen and serve: %w", err)
		}
	}()
	s.log.Info("server: listening", "addr", addr, "tools", len(s.reg.Names()))

	select {
	case <-ctx.Done():
		s.log.Info("server: stopping", "reason", ctx.Err())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		defer s.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		s.log.Info("server: shutdown complete")
		return nil
	case err := <-serveErrCh:
		s.Close()
		return err
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
