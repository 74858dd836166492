package market

import (
	"context"
	"sort"
	"time"

	"landlord/internal/econ"
)

// SimHoursPerRealHour converts wall-clock windows onto the tape's simulated
// time axis: one real hour is one simulated week.
const SimHoursPerRealHour = 168

// Window names a trailing span of simulated time to compute returns over.
// SinceYearStart ignores Sim and anchors at January 1 of the tape's current
// simulated year.
type Window struct {
	Name           string
	Sim            time.Duration
	SinceYearStart bool
}

// SimWindow builds a window from a wall-clock duration.
func SimWindow(name string, real time.Duration) Window {
	return Window{Name: name, Sim: real * SimHoursPerRealHour}
}

func DefaultWindows() []Window {
	return []Window{
		SimWindow("1h", time.Hour),
		SimWindow("1d", 24 * time.Hour),
		SimWindow("7d", 7 * 24 * time.Hour),
		SimWindow("30d", 30 * 24 * time.Hour),
		{Name: "ytd", SinceYearStart: true},
	}
}

func (w Window) start(last time.Time) time.Time {
	if w.SinceYearStart {
		return time.Date(last.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return last.Add(-w.Sim)
}

// resolveReturn picks the base price for one window over an ascending tape
// slice: the first tick at-or-after start, else the latest tick at-or-before
// it (the anchor covers ticks older than the loaded range), else the
// symbol's synthetic initial price.
func resolveReturn(ticks []Tick, anchor *Tick, initial float64, start time.Time, lastPrice float64) float64 {
	base := initial
	idx := sort.Search(len(ticks), func(i int) bool {
		return !ticks[i].At.Before(start)
	})
	switch {
	case idx < len(ticks):
		base = ticks[idx].Price
	case len(ticks) > 0:
		base = ticks[len(ticks)-1].Price
	case anchor != nil:
		base = anchor.Price
	}
	if base <= 0 {
		return 0
	}
	return econ.Round4(lastPrice/base - 1)
}

// ReturnsBySymbol reports the percentage change of every symbol over each
// requested window. The tape is read once from the earliest window start;
// individual windows resolve against the in-memory slice.
func (s *Service) ReturnsBySymbol(ctx context.Context, gameID string, windows []Window) (map[string]map[string]float64, error) {
	if len(windows) == 0 {
		windows = DefaultWindows()
	}

	var last *time.Time
	if err := s.db.QueryRow(ctx, `
		SELECT max(ticked_at) FROM econ.market_ticks WHERE game_id = $1
	`, gameID).Scan(&last); err != nil {
		return nil, err
	}
	out := make(map[string]map[string]float64, len(Symbols()))
	if last == nil {
		// No history at all: every return is flat off the initial price.
		for _, p := range Symbols() {
			out[p.Symbol] = make(map[string]float64, len(windows))
			for _, w := range windows {
				out[p.Symbol][w.Name] = 0
			}
		}
		return out, nil
	}

	earliest := windows[0].start(*last)
	for _, w := range windows[1:] {
		if st := w.start(*last); st.Before(earliest) {
			earliest = st
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT symbol, price, ticked_at
		FROM econ.market_ticks
		WHERE game_id = $1 AND ticked_at >= $2
		ORDER BY symbol, ticked_at
	`, gameID, earliest)
	if err != nil {
		return nil, err
	}
	tapes := make(map[string][]Tick)
	for rows.Next() {
		var tk Tick
		if err := rows.Scan(&tk.Symbol, &tk.Price, &tk.At); err != nil {
			rows.Close()
			return nil, err
		}
		tapes[tk.Symbol] = append(tapes[tk.Symbol], tk)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx, `
		SELECT DISTINCT ON (symbol) symbol, price, ticked_at
		FROM econ.market_ticks
		WHERE game_id = $1 AND ticked_at < $2
		ORDER BY symbol, ticked_at DESC
	`, gameID, earliest)
	if err != nil {
		return nil, err
	}
	anchors := make(map[string]Tick)
	for rows.Next() {
		var tk Tick
		if err := rows.Scan(&tk.Symbol, &tk.Price, &tk.At); err != nil {
			rows.Close()
			return nil, err
		}
		anchors[tk.Symbol] = tk
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range Symbols() {
		tape := tapes[p.Symbol]
		var anchor *Tick
		if a, ok := anchors[p.Symbol]; ok {
			anchor = &a
		}
		res := make(map[string]float64, len(windows))
		if len(tape) == 0 && anchor == nil {
			for _, w := range windows {
				res[w.Name] = 0
			}
			out[p.Symbol] = res
			continue
		}
		lastPrice := p.InitialPrice
		if len(tape) > 0 {
			lastPrice = tape[len(tape)-1].Price
		} else {
			lastPrice = anchor.Price
		}
		for _, w := range windows {
			res[w.Name] = resolveReturn(tape, anchor, p.InitialPrice, w.start(*last), lastPrice)
		}
		out[p.Symbol] = res
	}
	return out, nil
}
