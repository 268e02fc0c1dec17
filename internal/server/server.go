package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config carries everything the HTTP layer needs to serve the pool.
type Config struct {
	Addr            string
	APIKey          string
	DevMode         bool
	ShutdownTimeout time.Duration
}

// Server is the pool's HTTP front end. It owns the echo instance and a
// channel that reports when a shutdown has fully drained.
type Server struct {
	echo    *echo.Echo
	cfg     Config
	drained chan struct{}
}

// NewServer wires the handlers into a configured echo instance.
func NewServer(h *Handlers, cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Quotes settle in microseconds but AI answers do not; the write
	// timeout has to cover the slowest handler on the surface.
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 75 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	RegisterRoutes(e, h, cfg)

	return &Server{echo: e, cfg: cfg, drained: make(chan struct{})}
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	return s.echo.Start(s.cfg.Addr)
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	defer close(s.drained)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// WaitClosed blocks until the drain finishes or ctx expires.
func (s *Server) WaitClosed(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.drained:
		return nil
	}
}
