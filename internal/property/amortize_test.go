package property

import (
	"math"
	"testing"

	"landlord/internal/econ"
)

func TestWeeklyPaymentClosedForm(t *testing.T) {
	// 300k at 20% down leaves a 240k principal over 25 years at 5%.
	principal := 300000.0 - 60000.0
	got := WeeklyPayment(principal, 0.05, 25)

	r := 0.05 / 52
	n := 25.0 * 52
	want := principal * r / (1 - math.Pow(1+r, -n))
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("payment %f, closed form %f", got, want)
	}
	if got <= 0 {
		t.Fatalf("payment must be positive, got %f", got)
	}
}

func TestWeeklyPaymentZeroRate(t *testing.T) {
	got := WeeklyPayment(130000, 0, 25)
	want := 130000.0 / (25 * 52)
	if got != want {
		t.Fatalf("zero-rate payment %f, want %f", got, want)
	}
}

func TestWeeklyPaymentDegenerate(t *testing.T) {
	if got := WeeklyPayment(0, 0.05, 25); got != 0 {
		t.Fatalf("zero principal should cost nothing, got %f", got)
	}
	if got := WeeklyPayment(100000, 0.05, 0); got != 0 {
		t.Fatalf("zero term should cost nothing, got %f", got)
	}
}

func TestRefinanceTarget(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		debt    float64
		cashOut float64
		want    float64
	}{
		{"full cash-out hits ltv ceiling", 400000, 300000, 1.0, 320000},
		{"no cash-out keeps debt", 400000, 200000, 0, 200000},
		{"partial cash-out below ceiling", 400000, 200000, 0.25, 250000},
		{"underwater debt written down", 300000, 290000, 0, 240000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := refinanceTarget(tc.value, tc.debt, tc.cashOut)
			if got != tc.want {
				t.Fatalf("target %f, want %f", got, tc.want)
			}
			if got > tc.value*0.8 {
				t.Fatalf("target %f breaches ltv ceiling %f", got, tc.value*0.8)
			}
		})
	}
}

func TestMarginInterest(t *testing.T) {
	if got := marginInterest(5000, 0.04); got != 0 {
		t.Fatalf("positive cash must not accrue margin interest, got %f", got)
	}
	got := marginInterest(-1000, 0.04)
	want := 1000 * (0.04 + 0.05) / 52
	if math.Abs(got-want) > 0.01 {
		t.Fatalf("margin interest %f, want %f", got, want)
	}
	// Deeper deficits cost strictly more.
	if deeper := marginInterest(-2000, 0.04); deeper <= got {
		t.Fatalf("deficit doubled but interest went from %f to %f", got, deeper)
	}
}

func TestSettleWeekly(t *testing.T) {
	cash, margin := settleWeekly(1000, 250, 0.04)
	if cash != 1250 || margin != 0 {
		t.Fatalf("solvent settle: cash %f margin %f", cash, margin)
	}

	// Zero delta, negative balance: the interest still accrues. This is the
	// shape of a player who sold underwater and holds nothing.
	cash, margin = settleWeekly(-1000, 0, 0.04)
	wantMargin := econ.Round2(1000 * (0.04 + econ.MarginPremium) / econ.WeeksPerYear)
	if margin != wantMargin {
		t.Fatalf("debtor margin %f, want %f", margin, wantMargin)
	}
	if cash != econ.Round2(-1000-wantMargin) {
		t.Fatalf("debtor cash %f", cash)
	}

	// The delta lands before the balance is judged.
	cash, margin = settleWeekly(-500, 600, 0.04)
	if margin != 0 || cash != 100 {
		t.Fatalf("recovered settle: cash %f margin %f", cash, margin)
	}
}
