package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wardenfs/warden/internal/api/middleware"
	whttp "github.com/wardenfs/warden/internal/http"
	"github.com/wardenfs/warden/internal/infrastructure/config"
	"github.com/wardenfs/warden/internal/infrastructure/monitoring"
	"github.com/wardenfs/warden/internal/logging"
	"github.com/wardenfs/warden/internal/providers/filesystem"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/service"
	"github.com/wardenfs/warden/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	srv      *http.Server
	gate     *sandbox.Gate
	registry *service.Registry
	log      *logging.Logger
}

// New builds the full service from configuration: root set, gate,
// providers, registry, routes.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	roots, err := sandbox.BuildRootSet(cfg.Sandbox.AllowedDirs)
	if err != nil {
		return nil, err
	}

	gateCfg := sandbox.DefaultConfig()
	if cfg.Sandbox.SymlinkDepth > 0 {
		gateCfg.LinkBudget = cfg.Sandbox.SymlinkDepth
	}
	if cfg.Sandbox.CaseInsensitive != nil {
		gateCfg.CaseInsensitive = *cfg.Sandbox.CaseInsensitive
	}
	gate := sandbox.NewGate(roots, gateCfg)

	for _, root := range gate.Roots() {
		log.Info("allowed root", zap.String("path", string(root)))
	}

	metrics := monitoring.NewMetrics()
	registry := service.NewRegistry()

	fsProvider := filesystem.New(gate, log.Named("fs"), cfg.Sandbox.MaxReadBytes)
	fsProvider.ObserveDecisions(metrics.RecordDecision)
	if err := registry.Register(fsProvider); err != nil {
		return nil, err
	}

	stats := registry.Stats()
	log.Info("services registered",
		zap.Any("services", stats["total_services"]),
		zap.Any("tools", stats["total_tools"]))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := whttp.NewHandlers(registry, gate, metrics)
	wsHandler := ws.NewHandler(registry, log.Named("ws"), metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	router.GET("/services", handlers.ListServices)
	router.POST("/services/execute", handlers.ExecuteService)

	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		router:   router,
		gate:     gate,
		registry: registry,
		log:      log,
	}, nil
}

// Router exposes the Gin engine, primarily for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("server starting", zap.String("addr", addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
