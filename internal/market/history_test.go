package market

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"landlord/internal/econ"
)

func TestGenerateSeriesDeterministic(t *testing.T) {
	p, err := LookupSymbol("GRANIT")
	if err != nil {
		t.Fatal(err)
	}
	end := closeTime(time.Date(2026, time.August, 28, 14, 30, 0, 0, time.UTC))

	a := generateSeries("game-a", p, 5, end)
	b := generateSeries("game-a", p, 5, end)
	if len(a) != len(b) {
		t.Fatalf("tape lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tapes diverge at tick %d: %+v vs %+v", i, a[i], b[i])
		}
	}

	c := generateSeries("game-b", p, 5, end)
	same := len(a) == len(c)
	if same {
		for i := range a {
			if a[i].Price != c[i].Price {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatal("different games produced identical tapes")
	}
}

func TestGenerateSeriesWeekdaysOnly(t *testing.T) {
	p, _ := LookupSymbol("SYNTHA")
	end := closeTime(time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC))
	series := generateSeries("game-a", p, 2, end)
	if len(series) == 0 {
		t.Fatal("empty tape")
	}
	prev := time.Time{}
	for _, tk := range series {
		if !isBusinessDay(tk.At) {
			t.Fatalf("tick on a weekend: %s", tk.At.Format("2006-01-02 Mon"))
		}
		if !tk.At.After(prev) {
			t.Fatalf("tape not strictly ascending at %s", tk.At)
		}
		prev = tk.At
	}
	// Roughly 260 weekdays a year, give or take the calendar.
	if len(series) < 2*250 || len(series) > 2*262 {
		t.Fatalf("unexpected tick count for 2 years: %d", len(series))
	}
}

func TestGenerateSeriesPriceFloor(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("prices never fall below the floor", prop.ForAll(
		func(gameID string, years int) bool {
			p, _ := LookupSymbol("NEURON")
			end := closeTime(time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC))
			for _, tk := range generateSeries(gameID, p, years, end) {
				if tk.Price < econ.MinPrice {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
		gen.IntRange(1, 10),
	))

	properties.Property("prices carry at most two decimals", prop.ForAll(
		func(gameID string) bool {
			p, _ := LookupSymbol("MORTAR")
			end := closeTime(time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC))
			for _, tk := range generateSeries(gameID, p, 1, end) {
				if econ.Round2(tk.Price) != tk.Price {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNextRegimeSpans(t *testing.T) {
	src := NewSeeded("regimes", "X")
	for i := 0; i < 500; i++ {
		r := nextRegime(src)
		if r.days < regimeMinDays || r.days > regimeMaxDays {
			t.Fatalf("regime span out of range: %d", r.days)
		}
		if r.driftMul == 0 || r.volMul == 0 {
			t.Fatalf("regime multipliers unset: %+v", r)
		}
	}
}
