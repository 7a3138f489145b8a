package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/config"
	"github.com/nicekwell/postboard/internal/gateway"
	"github.com/nicekwell/postboard/internal/logger"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, "gateway")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	proxy, err := gateway.NewProxy(cfg.Gateway.UpstreamURL, cfg.Gateway.UpstreamTimeout, logger)
	if err != nil {
		logger.Fatal("proxy init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Gateway.HTTPAddr,
		Handler:           gateway.AccessLog(logger, gateway.Router{Proxy: proxy}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening",
			zap.String("addr", cfg.Gateway.HTTPAddr),
			zap.String("upstream", cfg.Gateway.UpstreamURL),
		)
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
	logger.Info("shutdown complete")
}
