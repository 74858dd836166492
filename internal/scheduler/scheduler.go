// Package scheduler drives the simulation clock: a handful of independently
// cadenced triggers, each sweeping every running game. Games are mutually
// independent and are processed with bounded parallelism; ticks for a single
// game are serialized through a per-game lock so no tick ever reads another
// tick's partial writes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"landlord/internal/econ"
	"landlord/internal/market"
	"landlord/internal/metrics"
	"landlord/internal/property"
)

type Config struct {
	WeekEvery    time.Duration
	MarketEvery  time.Duration
	NightlySpec  string
	RateStepSpec string
	SweepWorkers int
}

type Scheduler struct {
	db       *pgxpool.Pool
	log      *slog.Logger
	market   *market.Service
	property *property.Service
	cfg      Config

	cron  *cron.Cron
	locks sync.Map // game id -> *sync.Mutex
}

func New(db *pgxpool.Pool, logger *slog.Logger, mkt *market.Service, prop *property.Service, cfg Config) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SweepWorkers < 1 {
		cfg.SweepWorkers = 1
	}
	return &Scheduler{
		db:       db,
		log:      logger,
		market:   mkt,
		property: prop,
		cfg:      cfg,
		cron:     cron.New(),
	}
}

// Start registers every cadence and begins firing. ctx bounds the work each
// trigger performs, not the cron loop itself; call Stop to halt firing.
func (s *Scheduler) Start(ctx context.Context) error {
	entries := []struct {
		spec    string
		cadence string
		fn      func(context.Context, string) error
	}{
		{fmt.Sprintf("@every %s", s.cfg.WeekEvery), "weekly", s.weeklyTick},
		{fmt.Sprintf("@every %s", s.cfg.MarketEvery), "market", s.marketTick},
		{s.cfg.NightlySpec, "nightly", s.nightlyTick},
		{s.cfg.RateStepSpec, "rate_step", s.rateStepTick},
	}
	for _, e := range entries {
		e := e
		if _, err := s.cron.AddFunc(e.spec, func() {
			s.Sweep(ctx, e.cadence, e.fn)
		}); err != nil {
			return fmt.Errorf("register %s cadence: %w", e.cadence, err)
		}
	}
	s.cron.Start()
	s.log.Info("scheduler started",
		"week_every", s.cfg.WeekEvery.String(),
		"market_every", s.cfg.MarketEvery.String(),
		"nightly", s.cfg.NightlySpec,
		"rate_step", s.cfg.RateStepSpec,
		"workers", s.cfg.SweepWorkers)
	return nil
}

// Stop halts the triggers and waits for in-flight sweeps to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// Sweep applies fn to every running game. One game's failure is logged and
// never aborts the rest of the sweep.
func (s *Scheduler) Sweep(ctx context.Context, cadence string, fn func(context.Context, string) error) {
	start := time.Now()
	games, err := s.runningGames(ctx)
	if err != nil {
		s.log.Error("list running games", "err", err, "cadence", cadence)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SweepWorkers)
	for _, gameID := range games {
		gameID := gameID
		g.Go(func() error {
			mu := s.gameLock(gameID)
			mu.Lock()
			defer mu.Unlock()
			if err := fn(ctx, gameID); err != nil {
				metrics.TickErrorsTotal.WithLabelValues(cadence).Inc()
				s.log.Error("tick failed", "err", err, "cadence", cadence, "game_id", gameID)
				return nil
			}
			metrics.TicksRunTotal.WithLabelValues(cadence).Inc()
			return nil
		})
	}
	_ = g.Wait()
	metrics.SweepDuration.WithLabelValues(cadence).Observe(time.Since(start).Seconds())
	s.log.Info("sweep complete", "cadence", cadence, "games", len(games),
		"elapsed", time.Since(start).String())
}

// RunOnce performs a single weekly sweep, used by the worker's run-once mode
// and the operator CLI.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.Sweep(ctx, "weekly", s.weeklyTick)
}

// weeklyTick is one simulated week: advance the market a day, settle
// property cashflows, and run the annual pass when a simulated year
// completes.
func (s *Scheduler) weeklyTick(ctx context.Context, gameID string) error {
	if err := s.market.AdvanceOneDay(ctx, gameID); err != nil {
		return fmt.Errorf("market advance: %w", err)
	}
	weeks, err := s.property.WeeklyTick(ctx, gameID)
	if err != nil {
		return fmt.Errorf("weekly tick: %w", err)
	}
	if weeks > 0 && weeks%econ.WeeksPerYear == 0 {
		if err := s.property.AnnualTick(ctx, gameID); err != nil {
			return fmt.Errorf("annual tick: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) marketTick(ctx context.Context, gameID string) error {
	return s.market.AdvanceOneDay(ctx, gameID)
}

func (s *Scheduler) nightlyTick(ctx context.Context, gameID string) error {
	return s.property.NightlyTick(ctx, gameID)
}

func (s *Scheduler) rateStepTick(ctx context.Context, gameID string) error {
	return s.property.MonthlyRateStep(ctx, gameID)
}

func (s *Scheduler) runningGames(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM econ.games WHERE status = $1 ORDER BY created_at
	`, econ.StatusRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Scheduler) gameLock(gameID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(gameID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
