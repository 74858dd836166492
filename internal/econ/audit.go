package econ

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Audit kinds. The engine only ever writes these records; nothing in the
// engine reads them back.
const (
	AuditPurchase       = "purchase"
	AuditSale           = "sale"
	AuditRefinance      = "refinance"
	AuditWeeklyCashflow = "weekly_cashflow"
	AuditMarginInterest = "margin_interest"
	AuditMinorRepair    = "minor_repair"
	AuditMajorRepair    = "major_repair"
	AuditRenovation     = "renovation"
	AuditWindfall       = "windfall"
	AuditDividend       = "dividend"
	AuditTrade          = "trade"
	AuditRateStep       = "rate_step"
)

// Audit is one append-only record explaining a cash or debt mutation.
// PlayerID and HoldingID are optional; game-level entries leave them empty.
type Audit struct {
	GameID    string
	PlayerID  string
	HoldingID string
	Kind      string
	Amount    float64
	Detail    map[string]any
}

// AppendAudit writes a record within the caller's transaction so the explanation
// commits or rolls back together with the mutation it explains.
func AppendAudit(ctx context.Context, tx pgx.Tx, a Audit) error {
	meta := []byte("{}")
	if a.Detail != nil {
		var err error
		if meta, err = json.Marshal(a.Detail); err != nil {
			return err
		}
	}
	var playerID, holdingID any
	if a.PlayerID != "" {
		playerID = a.PlayerID
	}
	if a.HoldingID != "" {
		holdingID = a.HoldingID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO econ.audit_events (group_id, game_id, player_id, holding_id, kind, amount, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
	`, uuid.NewString(), a.GameID, playerID, holdingID, a.Kind, a.Amount, string(meta))
	return err
}
