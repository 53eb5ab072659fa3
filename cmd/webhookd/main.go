package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"imagetagger/internal/config"
	cronrunner "imagetagger/internal/cron"
	"imagetagger/internal/db"
	"imagetagger/internal/handler"
	"imagetagger/internal/logger"
	"imagetagger/internal/metrics"
	gormrepository "imagetagger/internal/repository/gorm"
	"imagetagger/internal/tagging"
)

func main() {
	cfgPath := os.Getenv("IT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("IT_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	scanMetrics, err := metrics.NewScanMetrics(registry)
	if err != nil {
		logger.Fatal("metrics init failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	// The tag cache lives for the whole process and is shared by reference
	// across every concurrent webhook delivery.
	tagCache := tagging.NewCache()
	resolver := &tagging.Resolver{
		Cache:   tagCache,
		Repo:    store,
		Logger:  logger,
		Metrics: scanMetrics,
	}
	pipeline := &tagging.Pipeline{
		Repo:     store,
		Resolver: resolver,
		Logger:   logger,
		Metrics:  scanMetrics,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	webhookHandler := &handler.ScanWebhookHandler{Pipeline: pipeline, Logger: logger}
	webhookHandler.Register(engine)
	imageHandler := &handler.ImageHandler{Repo: store}
	imageHandler.Register(engine)
	tagHandler := &handler.TagHandler{Repo: store}
	tagHandler.Register(engine)

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && cfg.ScanRepair.Enabled {
		repairer := &tagging.ScanRepairer{
			Repo:    store,
			Logger:  logger,
			Metrics: scanMetrics,
			MinAge:  cfg.ScanRepair.MinAge,
			Batch:   cfg.ScanRepair.BatchSize,
		}
		_, err := cronRunner.Add(cfg.Cron.ScanRepair, func(ctx context.Context) {
			repaired, err := repairer.Run(ctx)
			if err != nil {
				logger.Warn("scan repair sweep failed", zap.Error(err))
				return
			}
			if repaired > 0 {
				logger.Info("scan repair sweep ok", zap.Int("repaired", repaired))
			}
		})
		if err != nil {
			logger.Warn("cron register scan repair failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
