package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mthomas46/Hackathon-sub022/internal/discovery"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/config"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/monitoring"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/resilience"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/tracing"
)

// Server wraps the status API and its dependencies
type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	locator  *discovery.Locator
	breakers *resilience.Registry
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	started  time.Time
}

// New creates a server exposing health, breaker and metrics endpoints.
func New(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, locator *discovery.Locator, breakers *resilience.Registry) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	tracer := tracing.New("commlayer", logger.Logger)
	router.Use(tracing.HTTPMiddleware(tracer))
	if metrics != nil {
		router.Use(monitoring.Middleware(metrics))
	}

	s := &Server{
		router:   router,
		locator:  locator,
		breakers: breakers,
		logger:   logger.Named("server"),
		config:   cfg,
		metrics:  metrics,
		started:  time.Now(),
	}

	router.GET("/", s.root)
	router.GET("/health", s.health)

	router.GET("/services", s.listServices)
	router.GET("/services/:name", s.getService)
	router.GET("/services/:name/history", s.getServiceHistory)

	router.GET("/breakers", s.listBreakers)
	router.GET("/breakers/:name", s.getBreaker)
	router.POST("/breakers/:name/reset", s.resetBreaker)
	router.POST("/breakers/reset", s.resetAllBreakers)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server and the discovery loop.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.locator.StopDiscovery()

	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
			return err
		}
	}

	s.logger.Sync()
	return nil
}
