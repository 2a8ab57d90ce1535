package http

import (
	"context"
	"log/slog"
	"net/http"

	"persistence/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error is the JSON body of failed requests.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PingFunc checks database reachability through the request's session.
type PingFunc func(ctx context.Context) error

// Server exposes liveness, readiness and metrics endpoints.
// Readiness runs inside a per-request unit of work.
type Server struct {
	echo   *echo.Echo
	ping   PingFunc
	logger *slog.Logger
}

// NewServer wires the routes. uow scopes the readiness route; ping is run
// within that unit of work; gatherer backs /metrics.
func NewServer(uow ports.UnitOfWork, ping PingFunc, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		ping:   ping,
		logger: logger.With("component", "http_server"),
	}

	e.GET("/health", s.GetHealth)
	e.GET("/ready", s.GetReady, UnitOfWorkMiddleware(uow, logger))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// GetHealth handles GET /health - process liveness.
func (s *Server) GetHealth(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// GetReady handles GET /ready - pings the database through the request's session.
func (s *Server) GetReady(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	if err := s.ping(reqCtx); err != nil {
		s.logger.WarnContext(reqCtx, "Readiness check failed", "error", err)
		return ctx.JSON(http.StatusServiceUnavailable, Error{
			Code:    http.StatusServiceUnavailable,
			Message: "Database is unreachable",
		})
	}
	return ctx.String(http.StatusOK, "Ready")
}
