package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/history"
	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/router"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting file search service",
		"addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"workers", cfg.Scanner.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Server.Host, cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	eng := engine.New(cfg.Scanner, engine.WithMetrics(m), engine.WithTracing(cfg.Tracing.Enabled))

	checker := health.NewChecker()
	checker.Register("scanner", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d workers", eng.Workers())}
	})

	var tracker handler.EventTracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, 10000, 100)
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector
		slog.Info("search analytics enabled", "topic", producer.Topic())
	}
	checker.Register("analytics", func(ctx context.Context) health.ComponentHealth {
		if tracker == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: cfg.Kafka.Topics.SearchEvents}
	})

	var store handler.HistoryStore
	var historyStore *history.Store
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, search history disabled", "error", err)
		} else {
			defer db.Close()
			historyStore = history.NewStore(db)
			if err := historyStore.EnsureSchema(ctx); err != nil {
				slog.Warn("search history schema setup failed, history disabled", "error", err)
				historyStore = nil
			} else {
				store = historyStore
				slog.Info("search history enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
			}
		}
	}
	checker.Register("history", func(ctx context.Context) health.ComponentHealth {
		if historyStore == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := historyStore.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(eng, tracker, store)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(h, checker, m, cfg.Server),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + 5*time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("file search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("file search service stopped")
}
