package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pb "github.com/godilite/astromatch/api/v1"
	"github.com/godilite/astromatch/internal/config"
	handler "github.com/godilite/astromatch/internal/grpc"
	"github.com/godilite/astromatch/internal/httpapi"
	"github.com/godilite/astromatch/internal/metrics"
	"github.com/godilite/astromatch/pkg/cache"
	grpcsrv "github.com/godilite/astromatch/pkg/grpc/server"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	core       *Core
	cache      *cache.Cache
	grpcServer *grpcsrv.Server
	httpServer *http.Server
	httpLis    net.Listener
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := metrics.New(metrics.WithRuntimeMetrics(true))

	core, err := NewCore(ctx, cfg, logger, m)
	if err != nil {
		return nil, err
	}

	// Keep cacher an untyped nil when Redis is off so the handlers see no cache.
	var cacher handler.Cacher
	var cacheClient *cache.Cache
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cache.WithAddress(cfg.RedisAddr))
		if err != nil {
			core.Close()
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacher = cacheClient
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("REDIS_ADDR not set, result caching disabled")
	}

	grpcHandlers := handler.NewGRPCHandlers(core.Synastry, cacher, logger, cfg.CacheTTL, handler.WithCacheObserver(m))

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithLogging(true),
		grpcsrv.WithMetrics(m),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
	)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterSynastryServer(s, grpcHandlers)
	})

	httpLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
	if err != nil {
		_ = grpcServer.Shutdown(ctx)
		core.Close()
		return nil, fmt.Errorf("failed to listen on http port %d: %w", cfg.HTTPPort, err)
	}

	router := httpapi.NewRouter(core.Synastry,
		httpapi.WithLogger(logger),
		httpapi.WithMetrics(m),
	)

	return &App{
		logger:     logger,
		core:       core,
		cache:      cacheClient,
		grpcServer: grpcServer,
		httpServer: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		httpLis: httpLis,
	}, nil
}

// GRPCAddr and HTTPAddr report the bound listeners.
func (a *App) GRPCAddr() net.Addr { return a.grpcServer.Addr() }
func (a *App) HTTPAddr() net.Addr { return a.httpLis.Addr() }

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve starts both servers and shuts them down when ctx is done.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Info("application starting")

	a.grpcServer.Start()

	httpErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server started", zap.String("addr", a.httpLis.Addr().String()))
		if err := a.httpServer.Serve(a.httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
		close(httpErr)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-httpErr:
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	a.logger.Info("application shutting down")
	a.grpcServer.SetServiceHealth(pb.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", zap.Error(err))
	}
	if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("grpc shutdown error", zap.Error(err))
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if err := a.core.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}

	if shutdownCtx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return serveErr
}
