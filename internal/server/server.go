package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iamrosada0/paypay-integration-simplified/internal/config"
	"github.com/iamrosada0/paypay-integration-simplified/internal/paypay"
	"github.com/iamrosada0/paypay-integration-simplified/internal/server/handlers"
	"github.com/iamrosada0/paypay-integration-simplified/internal/server/middleware"
	"github.com/iamrosada0/paypay-integration-simplified/internal/services"
	"github.com/iamrosada0/paypay-integration-simplified/internal/store"
	"github.com/iamrosada0/paypay-integration-simplified/internal/version"
)

// Server wires the merchant payment API together: key material, the gateway
// transport, the payment store and the HTTP surface.
type Server struct {
	pool       *pgxpool.Pool
	store      store.Store
	config     *config.ServerEnvironment
	logger     *slog.Logger
	router     *chi.Mux
	keyManager *paypay.KeyManager
	services   *services.Services
	envelopes  *paypay.EnvelopeBuilder
}

// NewServer creates the production server: postgres-backed store, key
// material from the configured PEM files and the HTTP gateway transport.
func NewServer(
	pool *pgxpool.Pool,
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
) (*Server, error) {
	keyManager, err := paypay.NewKeyManager(&paypay.KeyManagerConfig{
		MerchantPrivateKeyPath: cfg.MerchantPrivateKeyPath,
		GatewayPublicKeyPath:   cfg.GatewayPublicKeyPath,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize KeyManager: %w", err)
	}

	svc, err := services.NewServices(cfg, keyManager.GatewayKey())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	server := newServer(cfg, logger, store.NewPostgresStore(pool), keyManager, svc)
	server.pool = pool
	return server, nil
}

// NewServerWithDependencies creates a server with explicit dependencies.
// Integration tests use this to run the full HTTP surface against the
// in-memory store and a local stand-in gateway.
func NewServerWithDependencies(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	st store.Store,
	keyManager *paypay.KeyManager,
	svc *services.Services,
) *Server {
	return newServer(cfg, logger, st, keyManager, svc)
}

func newServer(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	st store.Store,
	keyManager *paypay.KeyManager,
	svc *services.Services,
) *Server {
	server := &Server{
		store:      st,
		config:     cfg,
		logger:     logger,
		router:     chi.NewRouter(),
		keyManager: keyManager,
		services:   svc,
		envelopes:  paypay.NewEnvelopeBuilder(cfg.PartnerID, keyManager.MerchantKey()),
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

// Router returns the HTTP handler. Exposed for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestBodyBytes))
}

func (s *Server) registerRoutes() {
	payments := handlers.NewPaymentsHandler(s.store, s.services.Gateway, s.envelopes, s.config.PartnerID)
	notifications := handlers.NewNotificationsHandler(s.store, s.keyManager.GatewayKey())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/payments", payments.HandleCreatePayment)
		r.Get("/payments/{outTradeNo}", payments.HandleGetPayment)

		// the callback URL registered with the gateway
		r.Post("/notifications/gateway", notifications.HandleGatewayNotification)
	})

	s.router.Get("/health/live", handlers.HandleHealth)
	s.router.Get("/health/ready", handlers.HandleReadiness(s.store))
	s.router.Get("/version", handlers.HandleVersion(version.Get().Version, version.Get().BuildDate))
	s.router.Get("/.well-known/jwks.json", handlers.HandleJWKS(s.keyManager.JWKS()))
}

// Start runs the HTTP server until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// DatabaseShutdown closes the connection pool. No-op for servers built on a
// non-postgres store.
func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
