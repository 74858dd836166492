package market

import (
	"hash/fnv"
	"math"
	mathrand "math/rand"
	"time"
)

// Source is a deterministic pseudo-random stream with a gaussian sampler.
// Backfill seeds it from the (game, symbol) pair so two runs over a clean
// store produce the same tape; the live advancer seeds it from the prior
// tick's timestamp so a step is a pure function of the tape, not the wall
// clock.
type Source struct {
	rng      *mathrand.Rand
	spare    float64
	hasSpare bool
}

func NewSeeded(gameID, symbol string) *Source {
	h := fnv.New64a()
	h.Write([]byte(gameID))
	h.Write([]byte{'|'})
	h.Write([]byte(symbol))
	return &Source{rng: mathrand.New(mathrand.NewSource(int64(h.Sum64())))}
}

func NewTickSeeded(prior time.Time, symbol string) *Source {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return &Source{rng: mathrand.New(mathrand.NewSource(prior.UnixNano() ^ int64(h.Sum64())))}
}

func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// IntBetween returns a uniform integer in [lo, hi].
func (s *Source) IntBetween(lo, hi int) int {
	return lo + s.rng.Intn(hi-lo+1)
}

// Gauss returns a standard normal sample via the Box-Muller transform,
// caching the second value of each pair.
func (s *Source) Gauss() float64 {
	if s.hasSpare {
		s.hasSpare = false
		return s.spare
	}
	var u1 float64
	for u1 == 0 {
		u1 = s.rng.Float64()
	}
	u2 := s.rng.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	s.spare = r * math.Sin(2*math.Pi*u2)
	s.hasSpare = true
	return r * math.Cos(2*math.Pi*u2)
}
