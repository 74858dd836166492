package market

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"landlord/internal/econ"
	"landlord/internal/testdb"
)

func TestAdvanceOneDaySkipsEndedGame(t *testing.T) {
	pool := testdb.Connect(t)
	ctx := context.Background()

	gameID := uuid.NewString()
	if _, err := pool.Exec(ctx, `
		INSERT INTO econ.games (id, status) VALUES ($1, $2)
	`, gameID, econ.StatusEnded); err != nil {
		t.Fatal(err)
	}

	s := NewService(pool, nil, nil, 1)
	if err := s.AdvanceOneDay(ctx, gameID); err != nil {
		t.Fatalf("ended game must be a no-op: %v", err)
	}

	var n int
	if err := pool.QueryRow(ctx, `
		SELECT count(*) FROM econ.market_ticks WHERE game_id = $1
	`, gameID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("ended game still got %d ticks", n)
	}
}

func TestAdvanceOneDayMissingGameIsNoop(t *testing.T) {
	pool := testdb.Connect(t)

	s := NewService(pool, nil, nil, 1)
	if err := s.AdvanceOneDay(context.Background(), uuid.NewString()); err != nil {
		t.Fatalf("missing game must be a no-op: %v", err)
	}
}
