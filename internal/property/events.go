package property

import "landlord/internal/econ"

// Nightly event bands, mutually exclusive, drawn from one uniform number in
// increasing severity. Probabilities sum to 9%; the other 91% of nights
// nothing happens to a holding.
const (
	minorRepairBand = 0.05
	majorRepairBand = 0.07
	renovationBand  = 0.08
	windfallBand    = 0.09
)

type Event struct {
	Kind string
	// Cost is debited from the owner's cash; Credit is added to it.
	Cost   float64
	Credit float64
	// ValueMul and RentMul scale the holding's value and rent.
	ValueMul float64
	RentMul  float64
}

// drawEvent maps one uniform draw to an event, using roll for the cost
// ranges. roll(lo, hi) must return a uniform value in [lo, hi).
func drawEvent(u float64, roll func(lo, hi float64) float64) (Event, bool) {
	switch {
	case u < minorRepairBand:
		return Event{
			Kind:     econ.AuditMinorRepair,
			Cost:     econ.Round2(roll(200, 1200)),
			ValueMul: 1,
			RentMul:  1,
		}, true
	case u < majorRepairBand:
		return Event{
			Kind:     econ.AuditMajorRepair,
			Cost:     econ.Round2(roll(2000, 8000)),
			ValueMul: 0.99,
			RentMul:  1,
		}, true
	case u < renovationBand:
		return Event{
			Kind:     econ.AuditRenovation,
			Cost:     econ.Round2(roll(5000, 15000)),
			ValueMul: 1.03,
			RentMul:  1.05,
		}, true
	case u < windfallBand:
		return Event{
			Kind:     econ.AuditWindfall,
			Credit:   econ.Round2(roll(1000, 5000)),
			ValueMul: 1,
			RentMul:  1,
		}, true
	}
	return Event{}, false
}
