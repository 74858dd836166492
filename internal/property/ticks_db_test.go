package property

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"landlord/internal/econ"
	"landlord/internal/testdb"
)

func TestWeeklyTickChargesDebtorWithoutHoldings(t *testing.T) {
	pool := testdb.Connect(t)
	ctx := context.Background()

	gameID, playerID := uuid.NewString(), uuid.NewString()
	if _, err := pool.Exec(ctx, `
		INSERT INTO econ.games (id, status, base_mortgage_rate) VALUES ($1, $2, 0.04)
	`, gameID, econ.StatusRunning); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO econ.players (id, game_id, cash) VALUES ($1, $2, -1000)
	`, playerID, gameID); err != nil {
		t.Fatal(err)
	}

	s := NewService(pool, nil, nil, 25)
	weeks, err := s.WeeklyTick(ctx, gameID)
	if err != nil {
		t.Fatal(err)
	}
	if weeks != 1 {
		t.Fatalf("weeks elapsed %d, want 1", weeks)
	}

	var cash float64
	if err := pool.QueryRow(ctx, `
		SELECT cash FROM econ.players WHERE id = $1
	`, playerID).Scan(&cash); err != nil {
		t.Fatal(err)
	}
	margin := econ.Round2(1000 * (0.04 + econ.MarginPremium) / econ.WeeksPerYear)
	if want := econ.Round2(-1000 - margin); cash != want {
		t.Fatalf("debtor cash %f, want %f", cash, want)
	}

	var audits int
	if err := pool.QueryRow(ctx, `
		SELECT count(*) FROM econ.audit_events
		WHERE game_id = $1 AND player_id = $2 AND kind = $3
	`, gameID, playerID, econ.AuditMarginInterest).Scan(&audits); err != nil {
		t.Fatal(err)
	}
	if audits != 1 {
		t.Fatalf("margin interest audit rows %d, want 1", audits)
	}
}

func TestWeeklyTickSolventPlayerUntouched(t *testing.T) {
	pool := testdb.Connect(t)
	ctx := context.Background()

	gameID, playerID := uuid.NewString(), uuid.NewString()
	if _, err := pool.Exec(ctx, `
		INSERT INTO econ.games (id, status, base_mortgage_rate) VALUES ($1, $2, 0.04)
	`, gameID, econ.StatusRunning); err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO econ.players (id, game_id, cash) VALUES ($1, $2, 5000)
	`, playerID, gameID); err != nil {
		t.Fatal(err)
	}

	s := NewService(pool, nil, nil, 25)
	if _, err := s.WeeklyTick(ctx, gameID); err != nil {
		t.Fatal(err)
	}

	var cash float64
	if err := pool.QueryRow(ctx, `
		SELECT cash FROM econ.players WHERE id = $1
	`, playerID).Scan(&cash); err != nil {
		t.Fatal(err)
	}
	if cash != 5000 {
		t.Fatalf("solvent player with no holdings moved to %f", cash)
	}
}
