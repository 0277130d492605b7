// Package server exposes the status table over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"ethmon/pkg/log"
	"ethmon/pkg/models"
	"ethmon/pkg/observability"
	"ethmon/pkg/status"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// RigInspector reports per-rig runtime counters and states.
type RigInspector interface {
	Stats(index int) (models.RigStats, bool)
	StateName(index int) (string, bool)
}

// Options tunes a Server.
type Options struct {
	Version string
	Sentry  bool
	// Rigs is optional; without it /miners/:index/stats answers 404.
	Rigs RigInspector
	Now  func() time.Time
}

// Server serves dashboard and per-rig status snapshots as JSON.
type Server struct {
	table   *status.Table
	meta    status.Meta
	rigs    RigInspector
	version string
	now     func() time.Time
	started time.Time
	echo    *echo.Echo
	http    *http.Server
}

// New builds a server over table. Routes are registered immediately so the
// handler is usable without Start.
func New(table *status.Table, meta status.Meta, opts Options) *Server {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	srv := &Server{
		table:   table,
		meta:    meta,
		rigs:    opts.Rigs,
		version: opts.Version,
		now:     now,
		started: now(),
		echo:    echo.New(),
	}
	srv.setupRoutes(opts.Sentry)
	srv.http = &http.Server{
		Handler:           srv.echo,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return srv
}

// Handler returns the HTTP handler with all middleware applied.
func (srv *Server) Handler() http.Handler {
	return srv.echo
}

// Start listens on addr and blocks until the server is shut down.
func (srv *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	log.Info().
		Str("addr", listener.Addr().String()).
		Str("version", srv.version).
		Int("rig_count", srv.table.Len()).
		Msg("Starting status server")

	if err := srv.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (srv *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down status server...")

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.http.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Status server shutdown failed")
		return err
	}

	log.Info().Msg("Status server stopped")
	return nil
}

func (srv *Server) setupRoutes(sentryEnabled bool) {
	srv.echo.HideBanner = true
	srv.echo.HidePort = true

	if sentryEnabled {
		srv.echo.Use(sentryecho.New(sentryecho.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	srv.echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} ${status} ${method} ${uri} (${latency_human})\n",
	}))
	srv.echo.Use(middleware.Recover())
	srv.echo.Use(captureErrors)

	srv.echo.GET("/", srv.getDashboard)
	srv.echo.GET("/health", srv.getHealth)
	srv.echo.GET("/miners", srv.listMiners)
	srv.echo.GET("/miners/:index", srv.getMiner)
	srv.echo.GET("/miners/:index/stats", srv.getMinerStats)
}

// captureErrors forwards handler errors other than client errors to Sentry.
func captureErrors(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		err := next(ctx)
		if err == nil {
			return nil
		}
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code < http.StatusInternalServerError {
			return err
		}
		observability.CaptureError(err, map[string]string{
			"component": "http",
			"route":     ctx.Path(),
		}, map[string]interface{}{
			"method": ctx.Request().Method,
			"uri":    ctx.Request().RequestURI,
		})
		return err
	}
}
