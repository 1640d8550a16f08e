package pattern

import (
	"math"

	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

// hashSeed derives a deterministic 64-bit seed from a node identity and
// a cycle index using a SplitMix64-style avalanche mix. The spec
// requires per-cycle randomness that is reproducible across runs and
// independent of any global PRNG state, so every seeded combinator
// below folds its own node id and the query cycle through this instead
// of touching a shared generator.
func hashSeed(nodeID uint64, cycle int64) uint64 {
	z := nodeID + uint64(cycle)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// hashSeedOnset is hashSeed's counterpart for combinators that need to
// key off a Hap's onset rather than a whole cycle: it folds in the
// onset's numerator and denominator directly so two queries that only
// differ in which span they cover (but agree on a given Hap's onset)
// derive the same seed for that Hap.
func hashSeedOnset(nodeID uint64, onset rational.R) uint64 {
	z := nodeID ^ uint64(onset.Num)*0x9E3779B97F4A7C15 ^ uint64(onset.Den)*0xBF58476D1CE4E5B9
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// uniform01 converts a 64-bit hash into a float in [0, 1).
func uniform01(h uint64) float64 {
	return float64(h>>11) / float64(uint64(1)<<53)
}

// Rand is an analog signal producing a uniformly distributed float in
// [0, 1) per query, seeded by nodeID and the query time's integer
// cycle.
func Rand(nodeID uint64) Pattern {
	return Signal(func(t rational.R) value.V {
		cycle := t.Floor().Int()
		h := hashSeed(nodeID, cycle)
		return value.Number(uniform01(h))
	})
}

// Irand is Rand scaled and floored into [0, n).
func Irand(nodeID uint64, n int) Pattern {
	if n <= 0 {
		return Pure(value.Number(0))
	}
	return Signal(func(t rational.R) value.V {
		cycle := t.Floor().Int()
		h := hashSeed(nodeID, cycle)
		return value.Number(math.Floor(uniform01(h) * float64(n)))
	})
}

// Choose picks one of vs uniformly at random, per cycle.
func Choose(nodeID uint64, vs []value.V) Pattern {
	if len(vs) == 0 {
		return Silence
	}
	return Signal(func(t rational.R) value.V {
		cycle := t.Floor().Int()
		h := hashSeed(nodeID, cycle)
		idx := int(uniform01(h) * float64(len(vs)))
		if idx >= len(vs) {
			idx = len(vs) - 1
		}
		return vs[idx]
	})
}

// WeightedChoice pairs a value with its relative selection weight.
type WeightedChoice struct {
	Value  value.V
	Weight float64
}

// ChooseWeighted is Choose with non-uniform selection probabilities.
func ChooseWeighted(nodeID uint64, choices []WeightedChoice) Pattern {
	if len(choices) == 0 {
		return Silence
	}
	total := 0.0
	for _, c := range choices {
		total += c.Weight
	}
	if total <= 0 {
		return Silence
	}
	return Signal(func(t rational.R) value.V {
		cycle := t.Floor().Int()
		h := hashSeed(nodeID, cycle)
		target := uniform01(h) * total
		acc := 0.0
		for _, c := range choices {
			acc += c.Weight
			if target < acc {
				return c.Value
			}
		}
		return choices[len(choices)-1].Value
	})
}

// ChooseCycles plays one of ps per cycle, chosen at random (Choose's
// pattern-valued counterpart) rather than producing a bare value.
func ChooseCycles(nodeID uint64, ps []Pattern) Pattern {
	if len(ps) == 0 {
		return Silence
	}
	return splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam().Int()
		h := hashSeed(nodeID, cycle)
		idx := int(uniform01(h) * float64(len(ps)))
		if idx >= len(ps) {
			idx = len(ps) - 1
		}
		return ps[idx].Query(span)
	}))
}

// WeightedPatternChoice pairs a pattern with its relative selection
// weight, used by ChooseCyclesWeighted.
type WeightedPatternChoice struct {
	Weight  float64
	Pattern Pattern
}

// ChooseCyclesWeighted is ChooseCycles with non-uniform per-cycle
// selection probabilities, used to lower mini-notation's weighted '|'
// alternation.
func ChooseCyclesWeighted(nodeID uint64, choices []WeightedPatternChoice) Pattern {
	if len(choices) == 0 {
		return Silence
	}
	total := 0.0
	for _, c := range choices {
		total += c.Weight
	}
	if total <= 0 {
		return Silence
	}
	return splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam().Int()
		h := hashSeed(nodeID, cycle)
		target := uniform01(h) * total
		acc := 0.0
		for _, c := range choices {
			acc += c.Weight
			if target < acc {
				return c.Pattern.Query(span)
			}
		}
		return choices[len(choices)-1].Pattern.Query(span)
	}))
}

// DegradeBy drops each Hap of p independently with probability amount,
// using a hash of nodeID and the Hap's onset so that degradation is
// stable under re-querying the same span twice, and doesn't shift when
// a narrower re-query changes which index a surviving Hap lands at.
func (p Pattern) DegradeBy(nodeID uint64, amount float64) Pattern {
	return p.degradeByKeep(nodeID, amount, false)
}

// UndegradeBy is DegradeBy's complement: it keeps exactly the Haps that
// DegradeBy would drop.
func (p Pattern) UndegradeBy(nodeID uint64, amount float64) Pattern {
	return p.degradeByKeep(nodeID, amount, true)
}

func (p Pattern) degradeByKeep(nodeID uint64, amount float64, invert bool) Pattern {
	inner := p.query
	return splitQueries(New(func(span tspan.Span) []hap.H {
		var out []hap.H
		for _, h := range inner(span) {
			onset := h.WholeOrPart().Begin
			hh := hashSeedOnset(nodeID, onset)
			roll := uniform01(hh)
			dropped := roll < amount
			if dropped != invert {
				continue
			}
			out = append(out, h)
		}
		return out
	}))
}

// SometimesBy applies f to a randomly chosen fraction (amount) of p's
// Haps, leaving the rest untouched; the choice is made per Hap, from its
// onset.
func (p Pattern) SometimesBy(nodeID uint64, amount float64, f func(Pattern) Pattern) Pattern {
	return Stack(p.DegradeBy(nodeID, amount), f(p).UndegradeBy(nodeID, amount))
}

// Sometimes is SometimesBy with amount fixed at 0.5.
func (p Pattern) Sometimes(nodeID uint64, f func(Pattern) Pattern) Pattern {
	return p.SometimesBy(nodeID, 0.5, f)
}
