package econ

import (
	"errors"
	"math"
)

// Game lifecycle states. Only running games are swept by the scheduler.
const (
	StatusLobby   = "lobby"
	StatusRunning = "running"
	StatusEnded   = "ended"
)

const (
	// MinPrice is the hard floor on every persisted market price.
	MinPrice = 0.01

	// MaxLTV caps mortgage debt at 80% of current property value on refinance.
	MaxLTV = 0.80

	// MinDownPaymentPct is the smallest allowed down payment on a purchase.
	MinDownPaymentPct = 0.20

	// MarginPremium is added to a game's base mortgage rate when charging
	// weekly interest on a negative cash balance.
	MarginPremium = 0.05

	WeeksPerYear = 52

	// MortgageRateFloor / MortgageRateCeil bound the monthly rate step.
	MortgageRateFloor = 0.02
	MortgageRateCeil  = 0.07
	MortgageRateStep  = 0.0025
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already claimed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidSymbol     = errors.New("unknown market symbol")
	ErrLimitExceeded     = errors.New("limit exceeded")
	ErrUnavailable       = errors.New("price history unavailable")
	ErrTxConflict        = errors.New("transaction conflict, retry later")
)

// Round2 rounds a dollar amount to cents. Every cash, value and debt
// mutation goes through this before being persisted.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round4 rounds a ratio to four decimals, the precision returns are
// reported at.
func Round4(v float64) float64 {
	return math.Round(v*10_000) / 10_000
}

// ClampRate keeps a game's base mortgage rate inside its configured band.
func ClampRate(r float64) float64 {
	if r < MortgageRateFloor {
		return MortgageRateFloor
	}
	if r > MortgageRateCeil {
		return MortgageRateCeil
	}
	return r
}
