// Package testdb provisions the engine schema on a throwaway database for
// tests that need real Postgres semantics. Tests using it skip unless
// TEST_DATABASE_URL is set.
package testdb

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"landlord/internal/db"
)

const ddl = `
CREATE SCHEMA IF NOT EXISTS econ;

CREATE TABLE IF NOT EXISTS econ.games (
	id text PRIMARY KEY,
	status text NOT NULL,
	base_mortgage_rate double precision NOT NULL DEFAULT 0.04,
	appreciation_rate double precision NOT NULL DEFAULT 0.03,
	inflation_index double precision NOT NULL DEFAULT 1,
	weeks_elapsed integer NOT NULL DEFAULT 0,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS econ.players (
	id text PRIMARY KEY,
	game_id text NOT NULL,
	username text NOT NULL DEFAULT '',
	cash double precision NOT NULL DEFAULT 0,
	net_worth double precision NOT NULL DEFAULT 0,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS econ.property_templates (
	id text PRIMARY KEY,
	price double precision NOT NULL,
	base_rent double precision NOT NULL,
	annual_taxes double precision NOT NULL DEFAULT 0,
	annual_insurance double precision NOT NULL DEFAULT 0,
	annual_maintenance double precision NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS econ.property_holdings (
	id text PRIMARY KEY,
	game_id text NOT NULL,
	template_id text NOT NULL,
	player_id text NOT NULL,
	purchase_price double precision NOT NULL,
	current_value double precision NOT NULL,
	current_rent double precision NOT NULL,
	mortgage_rate double precision NOT NULL,
	mortgage_debt double precision NOT NULL,
	weekly_payment double precision NOT NULL,
	rent_collected double precision NOT NULL DEFAULT 0,
	interest_paid double precision NOT NULL DEFAULT 0,
	taxes_paid double precision NOT NULL DEFAULT 0,
	insurance_paid double precision NOT NULL DEFAULT 0,
	maintenance_paid double precision NOT NULL DEFAULT 0,
	net_cashflow double precision NOT NULL DEFAULT 0,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	UNIQUE (game_id, template_id)
);

CREATE TABLE IF NOT EXISTS econ.market_ticks (
	game_id text NOT NULL,
	symbol text NOT NULL,
	price double precision NOT NULL,
	ticked_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS econ.market_holdings (
	game_id text NOT NULL,
	player_id text NOT NULL,
	symbol text NOT NULL,
	quantity double precision NOT NULL,
	avg_cost double precision NOT NULL,
	PRIMARY KEY (game_id, player_id, symbol)
);

CREATE TABLE IF NOT EXISTS econ.audit_events (
	id bigserial PRIMARY KEY,
	group_id text NOT NULL,
	game_id text NOT NULL,
	player_id text,
	holding_id text,
	kind text NOT NULL,
	amount double precision NOT NULL,
	detail jsonb NOT NULL DEFAULT '{}',
	created_at timestamptz NOT NULL DEFAULT now()
);
`

// Connect returns a pool against TEST_DATABASE_URL with the engine schema
// applied, or skips the test when no database is configured. Tests isolate
// themselves with fresh game ids rather than truncation.
func Connect(t testing.TB) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := db.Connect(context.Background(), url, 4)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := pool.Exec(context.Background(), ddl); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return pool
}
