package property

import (
	"math"

	"landlord/internal/econ"
)

// WeeklyPayment is the closed-form annuity payment for an amortizing
// mortgage compounding weekly: P*r / (1 - (1+r)^-n) with r = rate/52 and
// n = years*52. A zero rate degenerates to straight-line principal.
func WeeklyPayment(principal, annualRate float64, years int) float64 {
	n := float64(years) * econ.WeeksPerYear
	if principal <= 0 || n <= 0 {
		return 0
	}
	r := annualRate / econ.WeeksPerYear
	if r == 0 {
		return econ.Round2(principal / n)
	}
	return econ.Round2(principal * r / (1 - math.Pow(1+r, -n)))
}

// refinanceTarget caps the post-refinance debt at 80% of current value
// while allowing up to cashOutPct of the existing debt to be drawn.
func refinanceTarget(currentValue, currentDebt, cashOutPct float64) float64 {
	target := math.Min(currentValue*econ.MaxLTV, currentDebt*(1+cashOutPct))
	if target < 0 {
		target = 0
	}
	return econ.Round2(target)
}

// marginInterest prices one week of carrying a negative cash balance at the
// game's base rate plus the margin premium.
func marginInterest(cash, baseRate float64) float64 {
	if cash >= 0 {
		return 0
	}
	return econ.Round2(-cash * (baseRate + econ.MarginPremium) / econ.WeeksPerYear)
}

// settleWeekly applies one week's holding cashflow to a player's balance and
// charges margin interest on the balance that results. The delta is zero for
// a debtor with no holdings; the interest still accrues.
func settleWeekly(cash, delta, baseRate float64) (float64, float64) {
	cash = econ.Round2(cash + delta)
	margin := marginInterest(cash, baseRate)
	if margin > 0 {
		cash = econ.Round2(cash - margin)
	}
	return cash, margin
}
