// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/auth"
	"github.com/vyrodovalexey/gildedrose/internal/config"
	"github.com/vyrodovalexey/gildedrose/internal/handler"
	"github.com/vyrodovalexey/gildedrose/internal/middleware"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

// Server represents the HTTP server.
type Server struct {
	httpServer    *http.Server
	router        *mux.Router
	config        *config.Config
	logger        *zap.Logger
	store         *store.MemoryStore
	authenticator auth.Authenticator
	wsHandler     *handler.WebSocketHandler

	clockMu      sync.Mutex
	clockStopped bool
	stopClock    chan struct{}
	clockDone    sync.WaitGroup
}

// New creates a new Server instance. A nil authenticator leaves every
// route open.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	itemStore *store.MemoryStore,
	authenticator auth.Authenticator,
) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:        router,
		config:        cfg,
		logger:        logger,
		store:         itemStore,
		authenticator: authenticator,
		stopClock:     make(chan struct{}),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures the middleware chain. RequestID comes first
// so every later middleware shares its per-request record.
func (s *Server) setupMiddleware() {
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))

	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.CORS(s.config.AllowedOrigins()...)))

	if s.authenticator != nil {
		s.router.Use(mux.MiddlewareFunc(middleware.Auth(s.authenticator, s.logger)))
	}
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	restHandler := handler.NewRESTHandler(s.store, s.logger)
	restHandler.RegisterRoutes(s.router)

	s.wsHandler = handler.NewWebSocketHandler(s.store, s.logger)
	s.wsHandler.RegisterRoutes(s.router)
	s.store.OnAdvance(s.wsHandler.Broadcast)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// Preflights must match a route for the middleware to see them; CORS
	// answers them before this handler runs.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// setupHTTPServer configures the HTTP server.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start starts the day clock, if configured, and then the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		zap.String("address", s.config.Address()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.String("auth_mode", s.authMode()),
		zap.Duration("day_interval", s.config.DayInterval),
	)

	s.startClock()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen and serve: %w", err)
	}

	return nil
}

// startClock advances the inventory by one day every DayInterval. It does
// nothing once the clock has been stopped, so a Shutdown that wins the race
// with Start never leaves a ticker behind.
func (s *Server) startClock() {
	if s.config.DayInterval <= 0 {
		return
	}

	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	if s.clockStopped {
		return
	}

	s.clockDone.Add(1)
	go func() {
		defer s.clockDone.Done()
		s.runClock(s.config.DayInterval)
	}()
}

func (s *Server) runClock(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopClock:
			return
		case <-ticker.C:
			if _, err := s.store.Advance(context.Background(), 1); err != nil {
				s.logger.Error("scheduled advance failed", zap.Error(err))
			}
		}
	}
}

// stopDayClock stops the day clock and waits for an in-flight advance.
func (s *Server) stopDayClock() {
	s.clockMu.Lock()
	if !s.clockStopped {
		s.clockStopped = true
		close(s.stopClock)
	}
	s.clockMu.Unlock()

	s.clockDone.Wait()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.stopDayClock()

	// Close all WebSocket connections first
	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the server's router for testing purposes.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) authMode() string {
	if s.authenticator == nil {
		return string(auth.MethodNone)
	}
	return string(s.authenticator.Method())
}
