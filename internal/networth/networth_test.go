package networth

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"landlord/internal/econ"
)

func ptr(f float64) *float64 { return &f }

func TestTotalAdditivity(t *testing.T) {
	holdings := []HoldingEquity{{Value: 400000, Debt: 300000}}
	positions := []Position{{Quantity: 10, AvgCost: 42, LastPrice: ptr(50)}}
	got := Total(100000, holdings, positions)
	if got != 200500 {
		t.Fatalf("net worth %f, want 200500", got)
	}
}

func TestTotalEmpty(t *testing.T) {
	if got := Total(1234.56, nil, nil); got != 1234.56 {
		t.Fatalf("cash-only net worth %f", got)
	}
}

func TestMarketValueCostFallback(t *testing.T) {
	positions := []Position{
		{Quantity: 5, AvgCost: 20, LastPrice: nil},
		{Quantity: 2, AvgCost: 20, LastPrice: ptr(30)},
	}
	if got := MarketValue(positions); got != 160 {
		t.Fatalf("market value %f, want 160", got)
	}
}

func TestPropertyEquityUnderwater(t *testing.T) {
	holdings := []HoldingEquity{{Value: 250000, Debt: 280000}}
	if got := PropertyEquity(holdings); got != -30000 {
		t.Fatalf("underwater equity %f, want -30000", got)
	}
}

func TestTotalProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total is the rounded component sum", prop.ForAll(
		func(cash, value, debt, qty, price float64) bool {
			holdings := []HoldingEquity{{Value: value, Debt: debt}}
			positions := []Position{{Quantity: qty, AvgCost: 1, LastPrice: ptr(price)}}
			want := econ.Round2(cash + (value - debt) + qty*price)
			return Total(cash, holdings, positions) == want
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0, 1e4),
		gen.Float64Range(0.01, 1e4),
	))

	properties.Property("splitting holdings never changes the total", prop.ForAll(
		func(cash, v1, d1, v2, d2 float64) bool {
			joined := Total(cash, []HoldingEquity{{Value: v1, Debt: d1}, {Value: v2, Debt: d2}}, nil)
			merged := Total(cash, []HoldingEquity{{Value: v1 + v2, Debt: d1 + d2}}, nil)
			return joined == merged
		},
		gen.Float64Range(0, 1e5),
		gen.Float64Range(0, 1e5),
		gen.Float64Range(0, 1e5),
		gen.Float64Range(0, 1e5),
		gen.Float64Range(0, 1e5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
