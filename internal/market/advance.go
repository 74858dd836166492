package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"landlord/internal/econ"
	"landlord/internal/metrics"
	"landlord/internal/networth"
	"landlord/internal/notify"
)

// Log-return clamps on a single advance step.
const (
	driverStepClamp    = 0.20
	satelliteStepClamp = 0.25
)

type lastTick struct {
	price float64
	at    time.Time
}

// AdvanceOneDay extends the game's tape by one simulated business day.
// Symbols without history trigger a backfill and the advance is deferred to
// the next invocation. Quarterly dividends are paid when the new day is the
// last trading day of a quarter.
func (s *Service) AdvanceOneDay(ctx context.Context, gameID string) error {
	// The game can end or vanish between the sweep listing it and this tick
	// running; either way the tape stays frozen.
	var status string
	err := s.db.QueryRow(ctx, `
		SELECT status FROM econ.games WHERE id = $1
	`, gameID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if status != econ.StatusRunning {
		return nil
	}

	latest, err := s.latestTicks(ctx, gameID)
	if err != nil {
		return err
	}
	if len(latest) < len(Symbols()) {
		return s.EnsureHistory(ctx, gameID, 0)
	}

	// Driver steps first; satellites need the realized driver returns.
	rets := make(map[string]float64, len(Symbols()))
	for _, p := range Symbols() {
		if !p.Driver {
			continue
		}
		lt := latest[p.Symbol]
		src := NewTickSeeded(lt.at, p.Symbol)
		rets[p.Symbol] = clamp(p.DailyDrift()+p.DailyVol()*src.Gauss(), driverStepClamp)
	}
	for _, p := range Symbols() {
		if p.Driver {
			continue
		}
		rets[p.Symbol] = clamp(Beta*rets[p.Ref], satelliteStepClamp)
	}

	next := make([]Tick, 0, len(Symbols()))
	for _, p := range Symbols() {
		lt := latest[p.Symbol]
		price := econ.Round2(lt.price * math.Exp(rets[p.Symbol]))
		if price < econ.MinPrice {
			price = econ.MinPrice
		}
		next = append(next, Tick{Symbol: p.Symbol, Price: price, At: nextBusinessDay(lt.at)})
	}

	type payout struct {
		total  float64
		detail map[string]any
	}
	payouts := make(map[string]*payout)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, tk := range next {
		if _, err := tx.Exec(ctx, `
			INSERT INTO econ.market_ticks (game_id, symbol, price, ticked_at)
			VALUES ($1, $2, $3, $4)
		`, gameID, tk.Symbol, tk.Price, tk.At); err != nil {
			return fmt.Errorf("append tick %s: %w", tk.Symbol, err)
		}

		p, _ := LookupSymbol(tk.Symbol)
		if p.AnnualYield <= 0 || !isQuarterEnd(tk.At) {
			continue
		}
		rows, err := tx.Query(ctx, `
			SELECT player_id, quantity
			FROM econ.market_holdings
			WHERE game_id = $1 AND symbol = $2
			FOR UPDATE
		`, gameID, tk.Symbol)
		if err != nil {
			return err
		}
		type holder struct {
			playerID string
			quantity float64
		}
		var holders []holder
		for rows.Next() {
			var h holder
			if err := rows.Scan(&h.playerID, &h.quantity); err != nil {
				rows.Close()
				return err
			}
			holders = append(holders, h)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, h := range holders {
			amount := econ.Round2(h.quantity * tk.Price * p.AnnualYield / 4)
			if amount <= 0 {
				continue
			}
			if _, err := tx.Exec(ctx, `
				UPDATE econ.players
				SET cash = cash + $1, updated_at = now()
				WHERE id = $2 AND game_id = $3
			`, amount, h.playerID, gameID); err != nil {
				return err
			}
			if err := econ.AppendAudit(ctx, tx, econ.Audit{
				GameID:   gameID,
				PlayerID: h.playerID,
				Kind:     econ.AuditDividend,
				Amount:   amount,
				Detail:   map[string]any{"symbol": tk.Symbol, "quantity": h.quantity, "price": tk.Price},
			}); err != nil {
				return err
			}
			po := payouts[h.playerID]
			if po == nil {
				po = &payout{detail: map[string]any{}}
				payouts[h.playerID] = po
			}
			po.total = econ.Round2(po.total + amount)
			po.detail[tk.Symbol] = amount
			metrics.DividendsPaidTotal.Inc()
		}
	}

	// One net-worth recomputation per paid player, not one per symbol.
	for playerID := range payouts {
		if _, err := networth.RecalcTx(ctx, tx, gameID, playerID); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	for playerID, po := range payouts {
		s.notifier.Publish(ctx, notify.Event{
			Type:     notify.EventDividend,
			GameID:   gameID,
			PlayerID: playerID,
			Amount:   po.total,
			Detail:   po.detail,
		})
	}
	return nil
}

func (s *Service) latestTicks(ctx context.Context, gameID string) (map[string]lastTick, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT ON (symbol) symbol, price, ticked_at
		FROM econ.market_ticks
		WHERE game_id = $1
		ORDER BY symbol, ticked_at DESC
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]lastTick)
	for rows.Next() {
		var symbol string
		var lt lastTick
		if err := rows.Scan(&symbol, &lt.price, &lt.at); err != nil {
			return nil, err
		}
		out[symbol] = lt
	}
	return out, rows.Err()
}

func clamp(ret, bound float64) float64 {
	if ret < -bound {
		return -bound
	}
	if ret > bound {
		return bound
	}
	return ret
}
