package app

import (
	"context"
	"net/http"

	"github.com/open-mmpa/functions/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes every function on one HTTP listener, plus health and
// metrics.
type Server struct {
	app    *App
	server *http.Server
}

func NewServer(a *App) *Server {
	s := &Server{app: a}
	s.server = &http.Server{
		Addr:         ":" + a.config.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
		IdleTimeout:  a.config.IdleTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.app.logger.WithField("port", s.app.config.ServerPort).Info("Starting server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.app.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	for _, fn := range s.app.Functions() {
		mux.Handle("/"+fn.Name, fn.Handler)
	}

	mux.Handle("GET /health", middleware.Chain(
		http.HandlerFunc(s.app.handlers.Health),
		middleware.Recovery,
	))

	if s.app.metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.app.metrics.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}
