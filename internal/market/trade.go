package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"landlord/internal/econ"
	"landlord/internal/networth"
)

type TradeResult struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Notional float64 `json:"notional"`
	Cash     float64 `json:"cash"`
}

// Buy fills a market order at the latest tick price, debiting cash and
// folding the fill into the position's volume-weighted average cost.
func (s *Service) Buy(ctx context.Context, gameID, playerID, symbol string, quantity float64) (TradeResult, error) {
	var out TradeResult
	if _, err := LookupSymbol(symbol); err != nil {
		return out, err
	}
	if quantity <= 0 {
		return out, fmt.Errorf("%w: quantity must be > 0", econ.ErrLimitExceeded)
	}

	err := econ.RunSerializable(ctx, s.db, func(tx pgx.Tx) error {
		price, err := latestPriceTx(ctx, tx, gameID, symbol)
		if err != nil {
			return err
		}
		notional := econ.Round2(price * quantity)

		var cash float64
		err = tx.QueryRow(ctx, `
			SELECT cash FROM econ.players
			WHERE id = $1 AND game_id = $2
			FOR UPDATE
		`, playerID, gameID).Scan(&cash)
		if errors.Is(err, pgx.ErrNoRows) {
			return econ.ErrNotFound
		}
		if err != nil {
			return err
		}
		if cash < notional {
			return econ.ErrInsufficientFunds
		}
		cash = econ.Round2(cash - notional)

		var oldQty, oldAvg float64
		err = tx.QueryRow(ctx, `
			SELECT quantity, avg_cost
			FROM econ.market_holdings
			WHERE game_id = $1 AND player_id = $2 AND symbol = $3
			FOR UPDATE
		`, gameID, playerID, symbol).Scan(&oldQty, &oldAvg)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if _, err := tx.Exec(ctx, `
				INSERT INTO econ.market_holdings (game_id, player_id, symbol, quantity, avg_cost)
				VALUES ($1, $2, $3, $4, $5)
			`, gameID, playerID, symbol, quantity, price); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			newQty := oldQty + quantity
			newAvg := econ.Round2((oldQty*oldAvg + quantity*price) / newQty)
			if _, err := tx.Exec(ctx, `
				UPDATE econ.market_holdings
				SET quantity = $1, avg_cost = $2
				WHERE game_id = $3 AND player_id = $4 AND symbol = $5
			`, newQty, newAvg, gameID, playerID, symbol); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, `
			UPDATE econ.players SET cash = $1, updated_at = now()
			WHERE id = $2 AND game_id = $3
		`, cash, playerID, gameID); err != nil {
			return err
		}
		if err := econ.AppendAudit(ctx, tx, econ.Audit{
			GameID: gameID, PlayerID: playerID,
			Kind: econ.AuditTrade, Amount: -notional,
			Detail: map[string]any{"side": "buy", "symbol": symbol, "quantity": quantity, "price": price},
		}); err != nil {
			return err
		}
		if _, err := networth.RecalcTx(ctx, tx, gameID, playerID); err != nil {
			return err
		}
		out = TradeResult{Symbol: symbol, Price: price, Quantity: quantity, Notional: notional, Cash: cash}
		return nil
	})
	return out, err
}

// Sell reduces a position at the latest tick price. Positions never go
// negative; selling the full quantity deletes the row.
func (s *Service) Sell(ctx context.Context, gameID, playerID, symbol string, quantity float64) (TradeResult, error) {
	var out TradeResult
	if _, err := LookupSymbol(symbol); err != nil {
		return out, err
	}
	if quantity <= 0 {
		return out, fmt.Errorf("%w: quantity must be > 0", econ.ErrLimitExceeded)
	}

	err := econ.RunSerializable(ctx, s.db, func(tx pgx.Tx) error {
		price, err := latestPriceTx(ctx, tx, gameID, symbol)
		if err != nil {
			return err
		}
		notional := econ.Round2(price * quantity)

		var oldQty float64
		err = tx.QueryRow(ctx, `
			SELECT quantity
			FROM econ.market_holdings
			WHERE game_id = $1 AND player_id = $2 AND symbol = $3
			FOR UPDATE
		`, gameID, playerID, symbol).Scan(&oldQty)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: no position in %s", econ.ErrLimitExceeded, symbol)
		}
		if err != nil {
			return err
		}
		if oldQty < quantity {
			return fmt.Errorf("%w: position holds %.4f", econ.ErrLimitExceeded, oldQty)
		}

		remaining := oldQty - quantity
		if remaining == 0 {
			if _, err := tx.Exec(ctx, `
				DELETE FROM econ.market_holdings
				WHERE game_id = $1 AND player_id = $2 AND symbol = $3
			`, gameID, playerID, symbol); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec(ctx, `
				UPDATE econ.market_holdings SET quantity = $1
				WHERE game_id = $2 AND player_id = $3 AND symbol = $4
			`, remaining, gameID, playerID, symbol); err != nil {
				return err
			}
		}

		var cash float64
		err = tx.QueryRow(ctx, `
			UPDATE econ.players
			SET cash = round((cash + $1)::numeric, 2), updated_at = now()
			WHERE id = $2 AND game_id = $3
			RETURNING cash
		`, notional, playerID, gameID).Scan(&cash)
		if errors.Is(err, pgx.ErrNoRows) {
			return econ.ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := econ.AppendAudit(ctx, tx, econ.Audit{
			GameID: gameID, PlayerID: playerID,
			Kind: econ.AuditTrade, Amount: notional,
			Detail: map[string]any{"side": "sell", "symbol": symbol, "quantity": quantity, "price": price},
		}); err != nil {
			return err
		}
		if _, err := networth.RecalcTx(ctx, tx, gameID, playerID); err != nil {
			return err
		}
		out = TradeResult{Symbol: symbol, Price: price, Quantity: quantity, Notional: notional, Cash: cash}
		return nil
	})
	return out, err
}

func latestPriceTx(ctx context.Context, tx pgx.Tx, gameID, symbol string) (float64, error) {
	var price float64
	err := tx.QueryRow(ctx, `
		SELECT price FROM econ.market_ticks
		WHERE game_id = $1 AND symbol = $2
		ORDER BY ticked_at DESC
		LIMIT 1
	`, gameID, symbol).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, econ.ErrUnavailable
	}
	return price, err
}
