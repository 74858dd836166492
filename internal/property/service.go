package property

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"landlord/internal/econ"
	"landlord/internal/networth"
	"landlord/internal/notify"
)

// Service runs the real-estate side of the economy: the purchase/refinance/
// sell lifecycle and the weekly, annual and nightly ticks. Live events use
// an unseeded source; unlike the market backfill they are intentionally
// non-reproducible.
type Service struct {
	db        *pgxpool.Pool
	log       *slog.Logger
	notifier  *notify.Notifier
	termYears int

	mu   sync.Mutex
	rand *mathrand.Rand
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, notifier *notify.Notifier, termYears int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if termYears <= 0 {
		termYears = 25
	}
	return &Service{
		db:        db,
		log:       logger,
		notifier:  notifier,
		termYears: termYears,
		rand:      mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) uniform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

func (s *Service) between(lo, hi float64) float64 {
	return lo + s.uniform()*(hi-lo)
}

type Holding struct {
	ID            string  `json:"id"`
	GameID        string  `json:"game_id"`
	PlayerID      string  `json:"player_id"`
	TemplateID    string  `json:"template_id"`
	PurchasePrice float64 `json:"purchase_price"`
	CurrentValue  float64 `json:"current_value"`
	CurrentRent   float64 `json:"current_rent"`
	MortgageRate  float64 `json:"mortgage_rate"`
	MortgageDebt  float64 `json:"mortgage_debt"`
	WeeklyPayment float64 `json:"weekly_payment"`
}

// Purchase buys a template for a player. Each template is a unique
// opportunity per game: the insert rides on the (game_id, template_id)
// unique constraint, so two racing purchases resolve to one holding and one
// Conflict with no check-then-act window.
func (s *Service) Purchase(ctx context.Context, gameID, playerID, templateID string, mortgageRate, downPct float64) (Holding, error) {
	var out Holding
	if downPct < econ.MinDownPaymentPct {
		return out, fmt.Errorf("%w: down payment must be at least %.0f%%", econ.ErrLimitExceeded, econ.MinDownPaymentPct*100)
	}

	err := econ.RunSerializable(ctx, s.db, func(tx pgx.Tx) error {
		var price, baseRent float64
		err := tx.QueryRow(ctx, `
			SELECT price, base_rent
			FROM econ.property_templates
			WHERE id = $1
		`, templateID).Scan(&price, &baseRent)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("template %s: %w", templateID, econ.ErrNotFound)
		}
		if err != nil {
			return err
		}

		var baseRate float64
		err = tx.QueryRow(ctx, `
			SELECT base_mortgage_rate FROM econ.games WHERE id = $1
		`, gameID).Scan(&baseRate)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("game %s: %w", gameID, econ.ErrNotFound)
		}
		if err != nil {
			return err
		}
		rate := mortgageRate
		if rate <= 0 {
			rate = baseRate
		}

		var cash float64
		err = tx.QueryRow(ctx, `
			SELECT cash FROM econ.players
			WHERE id = $1 AND game_id = $2
			FOR UPDATE
		`, playerID, gameID).Scan(&cash)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("player %s: %w", playerID, econ.ErrNotFound)
		}
		if err != nil {
			return err
		}

		down := econ.Round2(price * downPct)
		if cash < down {
			return econ.ErrInsufficientFunds
		}
		principal := econ.Round2(price - down)
		payment := WeeklyPayment(principal, rate, s.termYears)

		h := Holding{
			ID:            uuid.NewString(),
			GameID:        gameID,
			PlayerID:      playerID,
			TemplateID:    templateID,
			PurchasePrice: price,
			CurrentValue:  price,
			CurrentRent:   baseRent,
			MortgageRate:  rate,
			MortgageDebt:  principal,
			WeeklyPayment: payment,
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO econ.property_holdings
				(id, game_id, template_id, player_id, purchase_price, current_value,
				 current_rent, mortgage_rate, mortgage_debt, weekly_payment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, h.ID, h.GameID, h.TemplateID, h.PlayerID, h.PurchasePrice, h.CurrentValue,
			h.CurrentRent, h.MortgageRate, h.MortgageDebt, h.WeeklyPayment)
		if econ.IsUniqueViolation(err) {
			return fmt.Errorf("template %s: %w", templateID, econ.ErrConflict)
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE econ.players SET cash = $1, updated_at = now()
			WHERE id = $2 AND game_id = $3
		`, econ.Round2(cash-down), playerID, gameID); err != nil {
			return err
		}
		if err := econ.AppendAudit(ctx, tx, econ.Audit{
			GameID: gameID, PlayerID: playerID, HoldingID: h.ID,
			Kind: econ.AuditPurchase, Amount: -down,
			Detail: map[string]any{
				"template_id": templateID,
				"price":       price,
				"principal":   principal,
				"rate":        rate,
				"payment":     payment,
			},
		}); err != nil {
			return err
		}
		if _, err := networth.RecalcTx(ctx, tx, gameID, playerID); err != nil {
			return err
		}
		out = h
		return nil
	})
	return out, err
}

// Refinance re-amortizes a holding's debt at newRate, drawing up to
// cashOutPct of the existing debt as cash subject to the 80% LTV ceiling.
// Underwater holdings get their debt written down to the ceiling with no
// cash movement.
func (s *Service) Refinance(ctx context.Context, gameID, holdingID string, newRate, cashOutPct float64) error {
	if cashOutPct < 0 || cashOutPct > 1 {
		return fmt.Errorf("%w: cash-out must be in [0,1]", econ.ErrLimitExceeded)
	}
	if newRate <= 0 {
		return fmt.Errorf("%w: rate must be > 0", econ.ErrLimitExceeded)
	}

	return econ.RunSerializable(ctx, s.db, func(tx pgx.Tx) error {
		var playerID string
		var value, debt, oldRate float64
		err := tx.QueryRow(ctx, `
			SELECT player_id, current_value, mortgage_debt, mortgage_rate
			FROM econ.property_holdings
			WHERE id = $1 AND game_id = $2
			FOR UPDATE
		`, holdingID, gameID).Scan(&playerID, &value, &debt, &oldRate)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("holding %s: %w", holdingID, econ.ErrNotFound)
		}
		if err != nil {
			return err
		}

		target := refinanceTarget(value, debt, cashOutPct)
		payment := WeeklyPayment(target, newRate, s.termYears)
		if _, err := tx.Exec(ctx, `
			UPDATE econ.property_holdings
			SET mortgage_debt = $1, mortgage_rate = $2, weekly_payment = $3, updated_at = now()
			WHERE id = $4
		`, target, newRate, payment, holdingID); err != nil {
			return err
		}

		cashOut := econ.Round2(target - debt)
		if cashOut > 0 {
			if _, err := tx.Exec(ctx, `
				UPDATE econ.players
				SET cash = round((cash + $1)::numeric, 2), updated_at = now()
				WHERE id = $2 AND game_id = $3
			`, cashOut, playerID, gameID); err != nil {
				return err
			}
		}
		if err := econ.AppendAudit(ctx, tx, econ.Audit{
			GameID: gameID, PlayerID: playerID, HoldingID: holdingID,
			Kind: econ.AuditRefinance, Amount: cashOut,
			Detail: map[string]any{
				"old_debt": debt, "new_debt": target,
				"old_rate": oldRate, "new_rate": newRate,
				"payment": payment,
			},
		}); err != nil {
			return err
		}
		_, err = networth.RecalcTx(ctx, tx, gameID, playerID)
		return err
	})
}

// Sell liquidates a holding at current value less outstanding debt.
// Proceeds may be negative: selling underwater realizes the loss in cash.
func (s *Service) Sell(ctx context.Context, gameID, holdingID string) (float64, error) {
	var proceeds float64
	err := econ.RunSerializable(ctx, s.db, func(tx pgx.Tx) error {
		var playerID, templateID string
		var value, debt float64
		err := tx.QueryRow(ctx, `
			SELECT player_id, template_id, current_value, mortgage_debt
			FROM econ.property_holdings
			WHERE id = $1 AND game_id = $2
			FOR UPDATE
		`, holdingID, gameID).Scan(&playerID, &templateID, &value, &debt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("holding %s: %w", holdingID, econ.ErrNotFound)
		}
		if err != nil {
			return err
		}

		proceeds = econ.Round2(value - debt)
		if _, err := tx.Exec(ctx, `
			DELETE FROM econ.property_holdings WHERE id = $1
		`, holdingID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE econ.players
			SET cash = round((cash + $1)::numeric, 2), updated_at = now()
			WHERE id = $2 AND game_id = $3
		`, proceeds, playerID, gameID); err != nil {
			return err
		}
		if err := econ.AppendAudit(ctx, tx, econ.Audit{
			GameID: gameID, PlayerID: playerID, HoldingID: holdingID,
			Kind: econ.AuditSale, Amount: proceeds,
			Detail: map[string]any{"template_id": templateID, "value": value, "debt": debt},
		}); err != nil {
			return err
		}
		_, err = networth.RecalcTx(ctx, tx, gameID, playerID)
		return err
	})
	return proceeds, err
}
