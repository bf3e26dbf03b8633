package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/calckit/internal/cache"
	"github.com/iwvelando/calckit/internal/calculator"
	"github.com/iwvelando/calckit/internal/config"
	"github.com/iwvelando/calckit/internal/logging"
	"github.com/iwvelando/calckit/internal/metrics"
	"github.com/iwvelando/calckit/internal/server"
	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/tables"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	addressFlag := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cacheConfig := config.CacheConfig{
		Backend:       constants.CacheBackendNone,
		PruneInterval: constants.DefaultCachePruneInterval,
	}
	calcTables := tables.Default()
	if cfg.CalcConfig != "" {
		calcConf, err := config.LoadConfiguration(cfg.CalcConfig)
		if err != nil {
			logger.Fatal("failed to load calculation configuration",
				zap.String("op", "main"),
				zap.String("path", cfg.CalcConfig),
				zap.Error(err),
			)
		}
		cacheConfig = calcConf.Cache
		calcTables = calcConf.ResolvedTables()
	}

	resultCache, err := cache.New(ctx, cacheConfig, logger)
	if err != nil {
		logger.Fatal("failed to open result cache",
			zap.String("op", "main"),
			zap.String("backend", cacheConfig.Backend),
			zap.Error(err),
		)
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			logger.Warn("failed to close result cache",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	go cache.RunPruner(ctx, resultCache, cacheConfig.PruneInterval, logger)

	m := metrics.New()
	svc := calculator.NewService(logger, resultCache, m, calcTables)
	handler := server.NewHandler(logger, svc, m, cfg.MaxBodyBytes(), version)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	logger.Info("calckit server starting",
		zap.String("op", "main"),
		zap.String("address", cfg.Address),
		zap.Int64("maxBodyBytes", cfg.MaxBodyBytes()),
		zap.String("cache", cacheConfig.Backend),
		zap.String("version", version),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("calckit server stopped", zap.String("op", "main"))
}
