package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/cogniflow/agent/persistence"
	"github.com/BaSui01/cogniflow/api/handlers"
	"github.com/BaSui01/cogniflow/cognition"
	"github.com/BaSui01/cogniflow/config"
	"github.com/BaSui01/cogniflow/internal/metrics"
	"github.com/BaSui01/cogniflow/internal/server"
	"github.com/BaSui01/cogniflow/internal/telemetry"
	"github.com/BaSui01/cogniflow/internal/tlsutil"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 持有认知服务与两个 HTTP 端口（工具面、指标）
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	svc       *cognition.Service
	registry  *prometheus.Registry
	collector *metrics.Collector
	otel      *telemetry.Providers
	tls       *tls.Config

	healthHandler *handlers.HealthHandler
	toolHandler   *handlers.ToolHandler
	wsHandler     *handlers.WSHandler
}

// NewServer 初始化遥测、快照存储与认知服务，并加载上次保存的状态
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	tlsCfg, err := tlsutil.ServerTLSConfig(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
	if err != nil {
		return nil, err
	}
	s.tls = tlsCfg

	providers, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry, continuing without export", zap.Error(err))
		providers = nil
	}
	s.otel = providers

	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout(cfg))
	defer cancel()

	store, err := persistence.NewSnapshotStore(ctx, persistence.StoreConfigFrom(cfg.Persistence), logger)
	if err != nil {
		s.shutdownTelemetry()
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.collector = metrics.NewCollector("cogniflow", s.registry, logger)

	s.svc = cognition.New(cfg, store, logger, cognition.WithMetrics(s.collector))
	if err := s.svc.Load(ctx); err != nil {
		// 快照损坏时以空状态启动，下次保存会覆盖
		logger.Warn("failed to load cognitive state, starting fresh", zap.Error(err))
	}

	s.healthHandler = handlers.NewHealthHandler(Version, logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("snapshot_store", s.svc.Ping))
	s.toolHandler = handlers.NewToolHandler(s.svc, logger)
	s.wsHandler = handlers.NewWSHandler(s.svc, cfg.Server.CORSAllowedOrigins, logger)
	return s, nil
}

// storeInitTimeout 存储初始化与首次加载的超时
func storeInitTimeout(cfg *config.Config) time.Duration {
	if t := cfg.Persistence.MongoDB.ConnectTimeout; t > 0 && cfg.Persistence.Type == string(persistence.StoreTypeMongoDB) {
		return t + 5*time.Second
	}
	return 30 * time.Second
}

// =============================================================================
// 🛣️ 路由
// =============================================================================

// handler 构建工具面路由与中间件链，ctx 控制限流器的清理协程
func (s *Server) handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)

	mux.HandleFunc("GET /v1/tools", s.toolHandler.HandleListTools)
	mux.HandleFunc("POST /v1/tools/{name}", s.toolHandler.HandleCallTool)
	mux.HandleFunc("GET /v1/resources", s.toolHandler.HandleListResources)
	mux.Handle("GET /v1/ws", s.wsHandler)

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		MetricsMiddleware(s.collector),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)
}

func (s *Server) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		Registry:          s.registry,
		EnableOpenMetrics: true,
	}))
	return mux
}

func (s *Server) serverConfig(port int) server.Config {
	c := server.DefaultConfig()
	c.TLS = s.tls
	c.Addr = fmt.Sprintf(":%d", port)
	if s.cfg.Server.ReadTimeout > 0 {
		c.ReadTimeout = s.cfg.Server.ReadTimeout
	}
	if s.cfg.Server.WriteTimeout > 0 {
		c.WriteTimeout = s.cfg.Server.WriteTimeout
	}
	if s.cfg.Server.ShutdownTimeout > 0 {
		c.ShutdownTimeout = s.cfg.Server.ShutdownTimeout
	}
	return c
}

// =============================================================================
// 🚀 运行与关闭
// =============================================================================

// Run 阻塞到 SIGINT/SIGTERM 或任一组件失败。
// 自动保存协程在退出前写最后一次快照
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	api := server.NewManager("api", s.handler(gctx), s.serverConfig(s.cfg.Server.HTTPPort), s.logger)
	g.Go(func() error { return api.Run(gctx) })

	if s.cfg.Server.MetricsPort > 0 {
		mc := s.serverConfig(s.cfg.Server.MetricsPort)
		mc.WriteTimeout = 30 * time.Second
		mc.TLS = nil
		m := server.NewManager("metrics", s.metricsHandler(), mc, s.logger)
		g.Go(func() error { return m.Run(gctx) })
	}

	interval := s.cfg.Persistence.AutoSaveInterval
	g.Go(func() error { return s.svc.RunAutoSave(gctx, interval) })

	err := g.Wait()
	if interval <= 0 {
		// 未开启自动保存时仍在退出前保存一次
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if serr := s.svc.Save(saveCtx, cognition.TriggerShutdown); serr != nil {
			s.logger.Warn("shutdown save failed", zap.Error(serr))
		}
		cancel()
	}

	return errors.Join(err, s.close())
}

// close 释放存储与遥测
func (s *Server) close() error {
	var errs []error
	if err := s.svc.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.shutdownTelemetry(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Server) shutdownTelemetry() error {
	if s.otel == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.otel.Shutdown(ctx); err != nil {
		s.logger.Warn("telemetry shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
