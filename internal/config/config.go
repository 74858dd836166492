package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type WorkerConfig struct {
	DatabaseURL string
	RedisURL    string
	MetricsAddr string

	// WeekEvery is the real-time interval representing one simulated week.
	WeekEvery time.Duration
	// MarketEvery drives the fast market-only tick for intraday movement.
	MarketEvery time.Duration
	// NightlySpec and RateStepSpec are standard cron expressions.
	NightlySpec  string
	RateStepSpec string

	SweepWorkers      int
	DBMaxConns        int
	HistoryYears      int
	MortgageTermYears int

	RunOnce bool
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		MetricsAddr:       envDefault("LANDLORD_METRICS_ADDR", ":9184"),
		WeekEvery:         envDurationDefault("LANDLORD_WEEK_EVERY", time.Hour),
		MarketEvery:       envDurationDefault("LANDLORD_MARKET_EVERY", 5*time.Minute),
		NightlySpec:       envDefault("LANDLORD_NIGHTLY_SPEC", "0 3 * * *"),
		RateStepSpec:      envDefault("LANDLORD_RATE_STEP_SPEC", "0 0 1 * *"),
		SweepWorkers:      envIntDefault("LANDLORD_SWEEP_WORKERS", 4),
		DBMaxConns:        envIntDefault("LANDLORD_DB_MAX_CONNS", 20),
		HistoryYears:      envIntDefault("LANDLORD_HISTORY_YEARS", 50),
		MortgageTermYears: envIntDefault("LANDLORD_MORTGAGE_TERM_YEARS", 25),
		RunOnce:           envBoolDefault("LANDLORD_WORKER_RUN_ONCE", false),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.SweepWorkers < 1 {
		cfg.SweepWorkers = 1
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
