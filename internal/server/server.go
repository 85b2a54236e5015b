package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dagbolade/echoguard/internal/audit"
	"github.com/dagbolade/echoguard/internal/metrics"
	"github.com/dagbolade/echoguard/internal/policy"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct {
	echo   *echo.Echo
	config Config
	hub    *Hub
}

func New(cfg Config, store audit.Store, classifier policy.Classifier) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		config: cfg,
		hub:    NewHub(),
	}

	s.setupMiddleware()
	s.setupRoutes(store, classifier)

	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	log.Info().Int("port", s.config.Port).Msg("starting HTTP server")

	s.applyTimeouts()

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Serve runs the server on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.applyTimeouts()
	s.echo.Listener = ln

	log.Info().Str("addr", ln.Addr().String()).Msg("starting HTTP server")
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	s.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(s.config.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func (s *Server) applyTimeouts() {
	s.echo.Server.ReadTimeout = time.Duration(s.config.ReadTimeout) * time.Second
	s.echo.Server.WriteTimeout = time.Duration(s.config.WriteTimeout) * time.Second
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderXRequestID},
	}))

	s.echo.Use(middleware.BodyLimit(maxRequestBodySize))
}

func (s *Server) setupRoutes(store audit.Store, classifier policy.Classifier) {
	auditHandler := NewAuditHandler(store, classifier, s.hub, s.config.QueryLimit)
	uiHandler := NewUIHandler(store, s.config.QueryLimit)
	wsHandler := NewWSHandler(s.hub)

	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	s.echo.POST("/log", auditHandler.LogAccess)
	s.echo.GET("/data", auditHandler.GetData)
	s.echo.GET("/ws", wsHandler.HandleWebSocket)

	s.echo.GET("/", uiHandler.ServeDashboard)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
