package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/cache"
	"github.com/nicekwell/postboard/internal/config"
	cronrunner "github.com/nicekwell/postboard/internal/cron"
	"github.com/nicekwell/postboard/internal/db"
	"github.com/nicekwell/postboard/internal/handler"
	"github.com/nicekwell/postboard/internal/logger"
	"github.com/nicekwell/postboard/internal/metrics"
	gormrepository "github.com/nicekwell/postboard/internal/repository/gorm"
	"github.com/nicekwell/postboard/internal/service"

	_ "github.com/nicekwell/postboard/docs"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, "api")
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
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		logger.Fatal("schema init failed", zap.Error(err))
	}

	cacheStore, err := cache.NewStore(cfg.Cache)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer cacheStore.Close()

	m := metrics.New()
	store := gormrepository.New(dbConn.Gorm, cfg.DB.QueryTimeout)
	postService := &service.PostService{
		Repo: store,
		Cache: &cache.Client{
			Store:   cacheStore,
			Timeout: cfg.Cache.OpTimeout,
			Logger:  logger,
			Metrics: m,
		},
		CacheKey: cfg.Cache.Key,
		TTL:      cfg.Cache.TTL,
		Logger:   logger,
		Metrics:  m,
	}

	// The cache is optional: report its state at startup but never block on it.
	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.Cache.OpTimeout)
	if err := postService.Cache.Ping(pingCtx); err != nil {
		logger.Warn("cache unreachable at startup, serving from store", zap.String("addr", cfg.Cache.Addr), zap.Error(err))
	}
	cancelPing()

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := handler.NewRouter(postService, logger, m)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Probe.Enabled {
		probe := &service.DependencyProbe{Service: postService, Logger: logger, Metrics: m}
		if _, err := cronRunner.Add(cfg.Probe.Schedule, probe.Run); err != nil {
			logger.Warn("cron register dependency probe failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
