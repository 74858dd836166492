package property

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"landlord/internal/econ"
	"landlord/internal/metrics"
	"landlord/internal/networth"
	"landlord/internal/notify"
)

type weeklyHolding struct {
	id       string
	playerID string
	rent     float64
	payment  float64
	rate     float64
	debt     float64
	taxes    float64
	insure   float64
	maintain float64
}

// WeeklyTick runs one simulated week for every holding in the game: collect
// rent, service the mortgage, pay carrying costs, and charge margin interest
// on players left with negative cash. Deltas are summed per player and
// applied once. Returns the game's new weeks-elapsed counter; a vanished or
// non-running game is a no-op.
func (s *Service) WeeklyTick(ctx context.Context, gameID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var status string
	var baseRate float64
	err = tx.QueryRow(ctx, `
		SELECT status, base_mortgage_rate
		FROM econ.games
		WHERE id = $1
		FOR UPDATE
	`, gameID).Scan(&status, &baseRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if status != econ.StatusRunning {
		return 0, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT h.id, h.player_id, h.current_rent, h.weekly_payment,
		       h.mortgage_rate, h.mortgage_debt,
		       t.annual_taxes, t.annual_insurance, t.annual_maintenance
		FROM econ.property_holdings h
		JOIN econ.property_templates t ON t.id = h.template_id
		WHERE h.game_id = $1
		ORDER BY h.id
		FOR UPDATE OF h
	`, gameID)
	if err != nil {
		return 0, err
	}
	var holdings []weeklyHolding
	for rows.Next() {
		var h weeklyHolding
		if err := rows.Scan(&h.id, &h.playerID, &h.rent, &h.payment, &h.rate,
			&h.debt, &h.taxes, &h.insure, &h.maintain); err != nil {
			rows.Close()
			return 0, err
		}
		holdings = append(holdings, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	deltas := make(map[string]float64)
	for _, h := range holdings {
		interest := econ.Round2(h.debt * h.rate / econ.WeeksPerYear)
		pay := h.payment
		if h.debt <= 0 {
			pay, interest = 0, 0
		} else if principal := pay - interest; principal > h.debt {
			// Final installment: only the remaining balance is due.
			pay = econ.Round2(interest + h.debt)
		}
		newDebt := econ.Round2(h.debt - (pay - interest))
		if newDebt < 0 {
			newDebt = 0
		}

		taxes := econ.Round2(h.taxes / econ.WeeksPerYear)
		insure := econ.Round2(h.insure / econ.WeeksPerYear)
		maintain := econ.Round2(h.maintain / econ.WeeksPerYear)
		delta := econ.Round2(h.rent - pay - taxes - insure - maintain)

		if _, err := tx.Exec(ctx, `
			UPDATE econ.property_holdings
			SET mortgage_debt = $1,
			    rent_collected = round((rent_collected + $2)::numeric, 2),
			    interest_paid = round((interest_paid + $3)::numeric, 2),
			    taxes_paid = round((taxes_paid + $4)::numeric, 2),
			    insurance_paid = round((insurance_paid + $5)::numeric, 2),
			    maintenance_paid = round((maintenance_paid + $6)::numeric, 2),
			    net_cashflow = round((net_cashflow + $7)::numeric, 2),
			    updated_at = now()
			WHERE id = $8
		`, newDebt, h.rent, interest, taxes, insure, maintain, delta, h.id); err != nil {
			return 0, err
		}
		deltas[h.playerID] = econ.Round2(deltas[h.playerID] + delta)
	}

	// The settle set is every player with a holding delta plus every player
	// already in the red, so a debtor with no holdings still pays for the
	// week.
	ids := make([]string, 0, len(deltas))
	for playerID := range deltas {
		ids = append(ids, playerID)
	}
	rows, err = tx.Query(ctx, `
		SELECT id, cash FROM econ.players
		WHERE game_id = $1 AND (id = ANY($2) OR cash < 0)
		ORDER BY id
		FOR UPDATE
	`, gameID, ids)
	if err != nil {
		return 0, err
	}
	type balance struct {
		playerID string
		cash     float64
	}
	var balances []balance
	for rows.Next() {
		var b balance
		if err := rows.Scan(&b.playerID, &b.cash); err != nil {
			rows.Close()
			return 0, err
		}
		balances = append(balances, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	type outcome struct {
		delta  float64
		margin float64
	}
	outcomes := make(map[string]outcome, len(balances))
	for _, b := range balances {
		delta, hasDelta := deltas[b.playerID]
		cash, margin := settleWeekly(b.cash, delta, baseRate)
		if !hasDelta && margin == 0 {
			continue
		}
		if margin > 0 {
			if err := econ.AppendAudit(ctx, tx, econ.Audit{
				GameID: gameID, PlayerID: b.playerID,
				Kind: econ.AuditMarginInterest, Amount: -margin,
				Detail: map[string]any{"base_rate": baseRate},
			}); err != nil {
				return 0, err
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players SET cash = $1, updated_at = now()
			WHERE id = $2 AND game_id = $3
		`, cash, b.playerID, gameID); err != nil {
			return 0, err
		}
		if hasDelta {
			if err := econ.AppendAudit(ctx, tx, econ.Audit{
				GameID: gameID, PlayerID: b.playerID,
				Kind: econ.AuditWeeklyCashflow, Amount: delta,
			}); err != nil {
				return 0, err
			}
		}
		if _, err := networth.RecalcTx(ctx, tx, gameID, b.playerID); err != nil {
			return 0, err
		}
		outcomes[b.playerID] = outcome{delta: delta, margin: margin}
	}

	var weeks int
	if err := tx.QueryRow(ctx, `
		UPDATE econ.games
		SET weeks_elapsed = weeks_elapsed + 1, updated_at = now()
		WHERE id = $1
		RETURNING weeks_elapsed
	`, gameID).Scan(&weeks); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	for playerID, o := range outcomes {
		s.notifier.Publish(ctx, notify.Event{
			Type:     notify.EventWeeklyIncome,
			GameID:   gameID,
			PlayerID: playerID,
			Amount:   o.delta,
			Detail:   map[string]any{"margin_interest": o.margin},
		})
	}
	return weeks, nil
}

// AnnualTick refreshes the game's appreciation rate inside [2%, 5%], grows
// every holding's value by it, and inflates rents by a small random amount
// centered at 2.5%.
func (s *Service) AnnualTick(ctx context.Context, gameID string) error {
	appreciation := s.between(0.02, 0.05)
	inflation := 0.025 + (s.uniform()-0.5)*0.02

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `
		SELECT status FROM econ.games WHERE id = $1 FOR UPDATE
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

	if _, err := tx.Exec(ctx, `
		UPDATE econ.games
		SET appreciation_rate = $1,
		    inflation_index = inflation_index * (1 + $2),
		    updated_at = now()
		WHERE id = $3
	`, appreciation, inflation, gameID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE econ.property_holdings
		SET current_value = round((current_value * (1 + $1))::numeric, 2),
		    current_rent = round((current_rent * (1 + $2))::numeric, 2),
		    updated_at = now()
		WHERE game_id = $3
	`, appreciation, inflation, gameID); err != nil {
		return err
	}

	// Holding values moved, so every owner's net worth is stale.
	rows, err := tx.Query(ctx, `
		SELECT DISTINCT player_id FROM econ.property_holdings WHERE game_id = $1
	`, gameID)
	if err != nil {
		return err
	}
	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		owners = append(owners, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, playerID := range owners {
		if _, err := networth.RecalcTx(ctx, tx, gameID, playerID); err != nil {
			return err
		}
	}

	s.log.Info("annual tick applied",
		"game_id", gameID, "appreciation", appreciation, "rent_inflation", inflation)
	return tx.Commit(ctx)
}

// NightlyTick draws one uniform number per holding and applies at most one
// random event: minor repair, major repair, renovation or windfall.
func (s *Service) NightlyTick(ctx context.Context, gameID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `
		SELECT status FROM econ.games WHERE id = $1 FOR UPDATE
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

	rows, err := tx.Query(ctx, `
		SELECT id, player_id
		FROM econ.property_holdings
		WHERE game_id = $1
		ORDER BY id
		FOR UPDATE
	`, gameID)
	if err != nil {
		return err
	}
	type target struct {
		id       string
		playerID string
	}
	var targets []target
	for rows.Next() {
		var t target
		if err := rows.Scan(&t.id, &t.playerID); err != nil {
			rows.Close()
			return err
		}
		targets = append(targets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	touched := make(map[string]bool)
	for _, t := range targets {
		ev, ok := drawEvent(s.uniform(), s.between)
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.property_holdings
			SET current_value = round((current_value * $1)::numeric, 2),
			    current_rent = round((current_rent * $2)::numeric, 2),
			    maintenance_paid = round((maintenance_paid + $3)::numeric, 2),
			    net_cashflow = round((net_cashflow - $3 + $4)::numeric, 2),
			    updated_at = now()
			WHERE id = $5
		`, ev.ValueMul, ev.RentMul, ev.Cost, ev.Credit, t.id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players
			SET cash = round((cash - $1 + $2)::numeric, 2), updated_at = now()
			WHERE id = $3 AND game_id = $4
		`, ev.Cost, ev.Credit, t.playerID, gameID); err != nil {
			return err
		}
		if err := econ.AppendAudit(ctx, tx, econ.Audit{
			GameID: gameID, PlayerID: t.playerID, HoldingID: t.id,
			Kind: ev.Kind, Amount: econ.Round2(ev.Credit - ev.Cost),
		}); err != nil {
			return err
		}
		metrics.PropertyEventsTotal.WithLabelValues(ev.Kind).Inc()
		touched[t.playerID] = true
	}

	for playerID := range touched {
		if _, err := networth.RecalcTx(ctx, tx, gameID, playerID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// MonthlyRateStep nudges the game's base mortgage rate by ±0.25% inside
// [2%, 7%] and re-derives every holding's weekly payment at the new rate.
func (s *Service) MonthlyRateStep(ctx context.Context, gameID string) error {
	step := econ.MortgageRateStep
	if s.uniform() < 0.5 {
		step = -step
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	var baseRate float64
	err = tx.QueryRow(ctx, `
		SELECT status, base_mortgage_rate
		FROM econ.games
		WHERE id = $1
		FOR UPDATE
	`, gameID).Scan(&status, &baseRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if status != econ.StatusRunning {
		return nil
	}

	newRate := econ.ClampRate(baseRate + step)
	if _, err := tx.Exec(ctx, `
		UPDATE econ.games
		SET base_mortgage_rate = $1, updated_at = now()
		WHERE id = $2
	`, newRate, gameID); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, mortgage_debt
		FROM econ.property_holdings
		WHERE game_id = $1
		ORDER BY id
		FOR UPDATE
	`, gameID)
	if err != nil {
		return err
	}
	type loan struct {
		id   string
		debt float64
	}
	var loans []loan
	for rows.Next() {
		var l loan
		if err := rows.Scan(&l.id, &l.debt); err != nil {
			rows.Close()
			return err
		}
		loans = append(loans, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range loans {
		if _, err := tx.Exec(ctx, `
			UPDATE econ.property_holdings
			SET mortgage_rate = $1, weekly_payment = $2, updated_at = now()
			WHERE id = $3
		`, newRate, WeeklyPayment(l.debt, newRate, s.termYears), l.id); err != nil {
			return err
		}
	}

	if err := econ.AppendAudit(ctx, tx, econ.Audit{
		GameID: gameID,
		Kind:   econ.AuditRateStep,
		Amount: newRate,
		Detail: map[string]any{"old_rate": baseRate, "step": step},
	}); err != nil {
		return err
	}
	s.log.Info("mortgage rate stepped", "game_id", gameID, "old", baseRate, "new", newRate)
	return tx.Commit(ctx)
}
