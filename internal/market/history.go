package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"landlord/internal/econ"
)

// Regime span lengths in trading days.
const (
	regimeMinDays = 20
	regimeMaxDays = 270
)

type regime struct {
	days     int
	driftMul float64
	volMul   float64
}

// nextRegime draws a bull/bear/flat span: 55% bull, 25% bear, 20% flat,
// with drift and volatility multipliers applied to the symbol baseline.
func nextRegime(src *Source) regime {
	r := regime{days: src.IntBetween(regimeMinDays, regimeMaxDays)}
	switch u := src.Float64(); {
	case u < 0.55:
		r.driftMul, r.volMul = 1.2, 0.9
	case u < 0.80:
		r.driftMul, r.volMul = -0.6, 1.4
	default:
		r.driftMul, r.volMul = 0.2, 0.7
	}
	return r
}

// Tick is one point on a game's price tape.
type Tick struct {
	Symbol string
	Price  float64
	At     time.Time
}

// generateSeries builds the synthetic daily tape for one symbol, covering
// `years` simulated years of weekdays ending at `end`. Fully deterministic
// for a given (gameID, symbol) pair.
func generateSeries(gameID string, p SymbolParams, years int, end time.Time) []Tick {
	src := NewSeeded(gameID, p.Symbol)
	start := end.AddDate(-years, 0, 0)

	out := make([]Tick, 0, years*TradingDaysPerYear)
	price := p.InitialPrice
	var reg regime
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !isBusinessDay(day) {
			continue
		}
		if reg.days == 0 {
			reg = nextRegime(src)
		}
		reg.days--

		ret := p.DailyDrift()*reg.driftMul + p.DailyVol()*reg.volMul*src.Gauss()
		price = econ.Round2(price * math.Exp(ret))
		if price < econ.MinPrice {
			price = econ.MinPrice
		}
		out = append(out, Tick{Symbol: p.Symbol, Price: price, At: day})
	}
	return out
}

// EnsureHistory backfills the price tape for every symbol that has no ticks
// yet in this game. Symbols with any existing tick are skipped entirely so a
// live game is never re-seeded.
func (s *Service) EnsureHistory(ctx context.Context, gameID string, years int) error {
	if years <= 0 {
		years = s.historyYears
	}
	end := closeTime(time.Now().UTC())
	for _, p := range Symbols() {
		var exists bool
		err := s.db.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM econ.market_ticks
				WHERE game_id = $1 AND symbol = $2
			)
		`, gameID, p.Symbol).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check history %s: %w", p.Symbol, err)
		}
		if exists {
			continue
		}

		series := generateSeries(gameID, p, years, end)
		rows := make([][]any, len(series))
		for i, tk := range series {
			rows[i] = []any{gameID, tk.Symbol, tk.Price, tk.At}
		}
		_, err = s.db.CopyFrom(ctx,
			pgx.Identifier{"econ", "market_ticks"},
			[]string{"game_id", "symbol", "price", "ticked_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("backfill %s: %w", p.Symbol, err)
		}
		s.log.Info("price history backfilled",
			"game_id", gameID, "symbol", p.Symbol, "ticks", len(series))
	}
	return nil
}

// closeTime pins a tape timestamp to the simulated market close.
func closeTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 21, 0, 0, 0, time.UTC)
}
