// Package networth folds cash, property equity and market positions into the
// single persisted figure the rest of the game ranks players by.
package networth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"landlord/internal/econ"
)

type HoldingEquity struct {
	Value float64
	Debt  float64
}

type Position struct {
	Quantity float64
	AvgCost  float64
	// LastPrice is nil when the symbol has no tick yet; the position is
	// then valued at cost.
	LastPrice *float64
}

func PropertyEquity(holdings []HoldingEquity) float64 {
	var sum float64
	for _, h := range holdings {
		sum += h.Value - h.Debt
	}
	return sum
}

func MarketValue(positions []Position) float64 {
	var sum float64
	for _, p := range positions {
		price := p.AvgCost
		if p.LastPrice != nil {
			price = *p.LastPrice
		}
		sum += p.Quantity * price
	}
	return sum
}

func Total(cash float64, holdings []HoldingEquity, positions []Position) float64 {
	return econ.Round2(cash + PropertyEquity(holdings) + MarketValue(positions))
}

// RecalcTx recomputes and persists a player's net worth within the caller's
// transaction. Every operation that moves cash, debt or holding value ends
// with a call to this.
func RecalcTx(ctx context.Context, tx pgx.Tx, gameID, playerID string) (float64, error) {
	var cash float64
	err := tx.QueryRow(ctx, `
		SELECT cash FROM econ.players
		WHERE id = $1 AND game_id = $2
	`, playerID, gameID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, econ.ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	rows, err := tx.Query(ctx, `
		SELECT current_value, mortgage_debt
		FROM econ.property_holdings
		WHERE game_id = $1 AND player_id = $2
	`, gameID, playerID)
	if err != nil {
		return 0, err
	}
	var holdings []HoldingEquity
	for rows.Next() {
		var h HoldingEquity
		if err := rows.Scan(&h.Value, &h.Debt); err != nil {
			rows.Close()
			return 0, err
		}
		holdings = append(holdings, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	rows, err = tx.Query(ctx, `
		SELECT h.quantity, h.avg_cost, t.price
		FROM econ.market_holdings h
		LEFT JOIN LATERAL (
			SELECT price FROM econ.market_ticks
			WHERE game_id = h.game_id AND symbol = h.symbol
			ORDER BY ticked_at DESC
			LIMIT 1
		) t ON TRUE
		WHERE h.game_id = $1 AND h.player_id = $2
	`, gameID, playerID)
	if err != nil {
		return 0, err
	}
	var positions []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Quantity, &p.AvgCost, &p.LastPrice); err != nil {
			rows.Close()
			return 0, err
		}
		positions = append(positions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	total := Total(cash, holdings, positions)
	if _, err := tx.Exec(ctx, `
		UPDATE econ.players
		SET net_worth = $1, updated_at = now()
		WHERE id = $2 AND game_id = $3
	`, total, playerID, gameID); err != nil {
		return 0, err
	}
	return total, nil
}

// Service exposes recalculation and rankings outside a transaction.
type Service struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewService(db *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, log: logger}
}

func (s *Service) Recalc(ctx context.Context, gameID, playerID string) (float64, error) {
	var total float64
	err := econ.RunSerializable(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		total, err = RecalcTx(ctx, tx, gameID, playerID)
		return err
	})
	return total, err
}
