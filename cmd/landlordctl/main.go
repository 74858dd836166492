// landlordctl is the operator CLI: it talks straight to the database with
// the same engine services the worker runs, for backfills, manual ticks and
// quick inspection.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"landlord/internal/config"
	"landlord/internal/db"
	"landlord/internal/market"
	"landlord/internal/networth"
	"landlord/internal/notify"
	"landlord/internal/property"
	"landlord/internal/scheduler"
)

var (
	header = color.New(color.FgCyan, color.Bold)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

type app struct {
	pool  *pgxpool.Pool
	log   *slog.Logger
	cfg   config.WorkerConfig
	mkt   *market.Service
	prop  *property.Service
	nw    *networth.Service
	sched *scheduler.Scheduler
}

func newApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()
	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}
	notifier, err := notify.New(cfg.RedisURL, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	mkt := market.NewService(pool, logger, notifier, cfg.HistoryYears)
	prop := property.NewService(pool, logger, notifier, cfg.MortgageTermYears)
	return &app{
		pool: pool,
		log:  logger,
		cfg:  cfg,
		mkt:  mkt,
		prop: prop,
		nw:   networth.NewService(pool, logger),
		sched: scheduler.New(pool, logger, mkt, prop, scheduler.Config{
			WeekEvery:    cfg.WeekEvery,
			MarketEvery:  cfg.MarketEvery,
			NightlySpec:  cfg.NightlySpec,
			RateStepSpec: cfg.RateStepSpec,
			SweepWorkers: cfg.SweepWorkers,
		}),
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "landlordctl",
		Short:         "Operate the landlord simulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(backfillCmd(), tickCmd(), returnsCmd(), leaderboardCmd())

	if err := root.Execute(); err != nil {
		bad.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func backfillCmd() *cobra.Command {
	var years int
	cmd := &cobra.Command{
		Use:   "backfill <game-id>",
		Short: "Generate missing price history for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.pool.Close()
			start := time.Now()
			if err := a.mkt.EnsureHistory(ctx, args[0], years); err != nil {
				return err
			}
			good.Printf("history ensured for game %s in %s\n", args[0], time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&years, "years", 0, "years of history (default: configured value)")
	return cmd
}

func tickCmd() *cobra.Command {
	var cadence string
	cmd := &cobra.Command{
		Use:   "tick [game-id]",
		Short: "Run one tick manually; without a game id, sweep all running games",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.pool.Close()

			if len(args) == 0 {
				a.sched.RunOnce(ctx)
				good.Println("weekly sweep completed")
				return nil
			}
			gameID := args[0]
			switch cadence {
			case "weekly":
				if err := a.mkt.AdvanceOneDay(ctx, gameID); err != nil {
					return err
				}
				weeks, err := a.prop.WeeklyTick(ctx, gameID)
				if err != nil {
					return err
				}
				good.Printf("weekly tick done, weeks elapsed: %d\n", weeks)
			case "market":
				if err := a.mkt.AdvanceOneDay(ctx, gameID); err != nil {
					return err
				}
				good.Println("market advanced one day")
			case "nightly":
				if err := a.prop.NightlyTick(ctx, gameID); err != nil {
					return err
				}
				good.Println("nightly tick done")
			case "annual":
				if err := a.prop.AnnualTick(ctx, gameID); err != nil {
					return err
				}
				good.Println("annual tick done")
			case "rate-step":
				if err := a.prop.MonthlyRateStep(ctx, gameID); err != nil {
					return err
				}
				good.Println("rate step done")
			default:
				return fmt.Errorf("unknown cadence %q", cadence)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cadence, "cadence", "weekly", "weekly|market|nightly|annual|rate-step")
	return cmd
}

func returnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "returns <game-id>",
		Short: "Show per-symbol returns over the default windows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.pool.Close()

			windows := market.DefaultWindows()
			res, err := a.mkt.ReturnsBySymbol(ctx, args[0], windows)
			if err != nil {
				return err
			}

			header.Printf("%-8s", "symbol")
			for _, w := range windows {
				header.Printf("%10s", w.Name)
			}
			fmt.Println()

			symbols := make([]string, 0, len(res))
			for sym := range res {
				symbols = append(symbols, sym)
			}
			sort.Strings(symbols)
			for _, sym := range symbols {
				fmt.Printf("%-8s", sym)
				for _, w := range windows {
					r := res[sym][w.Name]
					c := good
					if r < 0 {
						c = bad
					}
					c.Printf("%9.2f%%", r*100)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func leaderboardCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard <game-id>",
		Short: "Rank a game's players by net worth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.pool.Close()

			rows, err := a.nw.Leaderboard(ctx, args[0], limit)
			if err != nil {
				return err
			}
			header.Printf("%-6s%-26s%16s\n", "rank", "player", "net worth")
			for _, r := range rows {
				fmt.Printf("%-6d%-26s%16.2f\n", r.Rank, r.Username, r.NetWorth)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 25, "max rows")
	return cmd
}
