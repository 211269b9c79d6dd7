package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lexgraph/lexgraph/internal/api"
	"github.com/lexgraph/lexgraph/internal/config"
	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/graph"
	"github.com/lexgraph/lexgraph/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if lvl, err := zapcore.ParseLevel(config.LogLevel()); err != nil {
		logger.Warn("invalid LOG_LEVEL, keeping info", zap.String("value", config.LogLevel()))
	} else if lvl != zapcore.InfoLevel {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		if rebuilt, err := cfg.Build(); err == nil {
			logger = rebuilt
		}
	}

	ctx := context.Background()

	var source domain.GraphSource
	switch config.GraphSource() {
	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			logger.Fatal("DATABASE_URL is required when GRAPH_SOURCE=postgres")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")
		source = store.NewPostgresGraphSource(pool)
	case "file":
		source = store.NewFileGraphSource(config.GraphPath())
	default:
		logger.Fatal("unknown GRAPH_SOURCE", zap.String("value", config.GraphSource()))
	}

	data, err := source.Load(ctx)
	if err != nil {
		logger.Fatal("failed to load knowledge graph", zap.Error(err))
	}

	idx, err := graph.NewIndex(data)
	if err != nil {
		logger.Fatal("knowledge graph failed integrity checks", zap.Error(err))
	}
	stats := idx.Stats()
	logger.Info("knowledge graph loaded",
		zap.Int("sections", stats.Sections),
		zap.Int("clauses", stats.Clauses),
		zap.Int("definitions", stats.Definitions),
		zap.Int("rights", stats.Rights),
		zap.Int("edges", stats.Edges),
	)

	app := api.NewApp(idx, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
