package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"powercast/ml"
	"powercast/monitoring"
)

// Server binds the prediction handler to its route.
type Server struct {
	server  *http.Server
	handler http.Handler
	config  ServerConfig
	logger  *zap.Logger
}

// ServerConfig is the resolved listener, routing and CORS setup.
type ServerConfig struct {
	Addr         string
	Route        string
	HealthRoute  string
	MetricsRoute string
	Timeout      time.Duration
	MaxBodyBytes int64
	ErrorMode    string
	CORSEnabled  bool
	CORS         CORSConfig
}

// DefaultServerConfig matches the production variant.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		Route:        "/api/predict",
		HealthRoute:  "/healthz",
		Timeout:      30 * time.Second,
		MaxBodyBytes: 1 << 20,
		ErrorMode:    ErrorModeStructured,
	}
}

// NewServer wires the handlers and middleware chain. metrics may be nil, in
// which case no metrics route is registered.
func NewServer(config ServerConfig, model ml.Model, logger *zap.Logger, metrics *monitoring.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	predict := NewPredictHandler(model, logger, metrics, config.ErrorMode)
	mux.Handle("POST "+config.Route, metrics.InstrumentHandler(config.Route, predict))

	if config.HealthRoute != "" {
		mux.Handle("GET "+config.HealthRoute, metrics.InstrumentHandler(config.HealthRoute, http.HandlerFunc(handleHealth)))
	}
	if metrics != nil && config.MetricsRoute != "" {
		mux.Handle("GET "+config.MetricsRoute, metrics.Handler())
	}

	middlewares := []Middleware{
		RecoveryMiddleware(logger),
		LoggerMiddleware(logger),
		SecurityHeadersMiddleware,
	}
	if config.CORSEnabled {
		middlewares = append(middlewares, CORSMiddleware(config.CORS))
	}
	middlewares = append(middlewares,
		TimeoutMiddleware(config.Timeout),
		RequestSizeMiddleware(config.MaxBodyBytes),
	)
	handler := Chain(middlewares...)(mux)

	writeTimeout := config.Timeout
	if writeTimeout > 0 {
		writeTimeout += 5 * time.Second
	}

	return &Server{
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       config.Timeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       120 * time.Second,
			ErrorLog:          zap.NewStdLog(logger),
		},
		handler: handler,
		config:  config,
		logger:  logger,
	}
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener. It returns nil after Stop.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", listener.Addr().String()),
		zap.String("route", s.config.Route),
		zap.Bool("cors", s.config.CORSEnabled))

	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
