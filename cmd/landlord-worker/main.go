package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"landlord/internal/config"
	"landlord/internal/db"
	"landlord/internal/market"
	"landlord/internal/notify"
	"landlord/internal/property"
	"landlord/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	notifier, err := notify.New(cfg.RedisURL, logger)
	if err != nil {
		logger.Error("redis connect failed", "err", err)
		os.Exit(1)
	}
	defer notifier.Close()

	mkt := market.NewService(pool, logger, notifier, cfg.HistoryYears)
	prop := property.NewService(pool, logger, notifier, cfg.MortgageTermYears)
	sched := scheduler.New(pool, logger, mkt, prop, scheduler.Config{
		WeekEvery:    cfg.WeekEvery,
		MarketEvery:  cfg.MarketEvery,
		NightlySpec:  cfg.NightlySpec,
		RateStepSpec: cfg.RateStepSpec,
		SweepWorkers: cfg.SweepWorkers,
	})

	if cfg.RunOnce {
		sched.RunOnce(ctx)
		logger.Info("worker run-once completed")
		return
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler start failed", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("worker shutdown")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}
