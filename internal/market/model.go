package market

import (
	"math"

	"landlord/internal/econ"
)

const TradingDaysPerYear = 252

// SymbolParams describes one asset in the game's price universe. Drivers
// evolve from their own stochastic process; satellites step off the realized
// log-return of their reference driver.
type SymbolParams struct {
	Symbol       string
	Name         string
	InitialPrice float64
	AnnualDrift  float64
	AnnualVol    float64
	// AnnualYield is the dividend yield paid out quarterly; zero means the
	// symbol never pays.
	AnnualYield float64
	Driver      bool
	// Ref names the driver a satellite correlates with. Empty for drivers.
	Ref string
}

// Beta is the satellite correlation coefficient against its reference
// driver's realized log-return.
const Beta = 1.0

var catalog = []SymbolParams{
	{Symbol: "GRANIT", Name: "Granite Industrial", InitialPrice: 84, AnnualDrift: 0.065, AnnualVol: 0.16, AnnualYield: 0.020, Driver: true},
	{Symbol: "HELIOS", Name: "Helios Energy", InitialPrice: 47, AnnualDrift: 0.080, AnnualVol: 0.24, Driver: true},
	{Symbol: "MERIDN", Name: "Meridian Financial", InitialPrice: 112, AnnualDrift: 0.070, AnnualVol: 0.19, AnnualYield: 0.025, Driver: true},
	{Symbol: "SYNTHA", Name: "Syntha Compute", InitialPrice: 156, AnnualDrift: 0.105, AnnualVol: 0.30, Driver: true},

	{Symbol: "BRICKS", Name: "Brickline Construction", InitialPrice: 36, AnnualDrift: 0.055, AnnualVol: 0.18, AnnualYield: 0.030, Ref: "GRANIT"},
	{Symbol: "MORTAR", Name: "Mortar Materials", InitialPrice: 22, AnnualDrift: 0.050, AnnualVol: 0.15, AnnualYield: 0.035, Ref: "GRANIT"},
	{Symbol: "SOLARA", Name: "Solara Grid", InitialPrice: 63, AnnualDrift: 0.095, AnnualVol: 0.28, Ref: "HELIOS"},
	{Symbol: "TURBIN", Name: "Turbine Dynamics", InitialPrice: 41, AnnualDrift: 0.075, AnnualVol: 0.22, Ref: "HELIOS"},
	{Symbol: "LEDGER", Name: "Ledger Trust", InitialPrice: 95, AnnualDrift: 0.060, AnnualVol: 0.17, AnnualYield: 0.040, Ref: "MERIDN"},
	{Symbol: "VAULTS", Name: "Vaultstone Holdings", InitialPrice: 130, AnnualDrift: 0.065, AnnualVol: 0.20, AnnualYield: 0.035, Ref: "MERIDN"},
	{Symbol: "NEURON", Name: "Neuron Labs", InitialPrice: 210, AnnualDrift: 0.120, AnnualVol: 0.34, Ref: "SYNTHA"},
	{Symbol: "CIRCUT", Name: "Circuit Foundry", InitialPrice: 74, AnnualDrift: 0.090, AnnualVol: 0.26, Ref: "SYNTHA"},
}

// Symbols returns the full universe. The slice is shared; callers must not
// mutate it.
func Symbols() []SymbolParams {
	return catalog
}

func LookupSymbol(symbol string) (SymbolParams, error) {
	for _, p := range catalog {
		if p.Symbol == symbol {
			return p, nil
		}
	}
	return SymbolParams{}, econ.ErrInvalidSymbol
}

// DailyDrift is the baseline daily log-drift derived from the annual figure.
func (p SymbolParams) DailyDrift() float64 {
	return p.AnnualDrift / TradingDaysPerYear
}

// DailyVol scales annual volatility to a single trading day.
func (p SymbolParams) DailyVol() float64 {
	return p.AnnualVol / math.Sqrt(TradingDaysPerYear)
}
