// Package pattern implements the pattern algebra: a value-level
// representation of time-varying music as queryable functions, plus the
// combinators that compose and transform them.
//
// A Pattern is an opaque, immutable handle around a query function
// Span -> []Hap. Every combinator in this package takes Patterns and
// returns a new Pattern; none of them mutate their inputs.
package pattern

import (
	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

// QueryFunc answers a query over a time span with the Haps active
// during it.
type QueryFunc func(tspan.Span) []hap.H

// Pattern is an immutable, shareable handle to a query function plus the
// metadata the combinators need to align structure (tactus).
type Pattern struct {
	query  QueryFunc
	tactus *rational.R
}

// New wraps a raw query function as a Pattern with no known tactus.
func New(q QueryFunc) Pattern {
	return Pattern{query: q}
}

// WithTactus returns a copy of p with its tactus (cyclic structural
// length) set explicitly. fastcat/timecat/polymeter use this to record
// how many steps a pattern occupies per cycle.
func (p Pattern) WithTactus(t rational.R) Pattern {
	p.tactus = &t
	return p
}

// Tactus returns the pattern's structural step count, if known.
func (p Pattern) Tactus() (rational.R, bool) {
	if p.tactus == nil {
		return rational.R{}, false
	}
	return *p.tactus, true
}

// TactusOr returns the pattern's tactus, or fallback if unknown.
func (p Pattern) TactusOr(fallback rational.R) rational.R {
	if p.tactus == nil {
		return fallback
	}
	return *p.tactus
}

// Query asks the pattern for every Hap active during span. Every
// returned Hap's Part is contained in span, and if Whole is present,
// Part is contained in Whole.
func (p Pattern) Query(span tspan.Span) []hap.H {
	if span.IsEmpty() {
		return nil
	}
	if p.query == nil {
		return nil
	}
	return p.query(span)
}

// Silence is the pattern that never produces any events.
var Silence = New(func(tspan.Span) []hap.H { return nil })

// Pure yields one Hap per integer cycle touched by the query, each with
// Whole = [floor(b), floor(b)+1) clipped to Part by the query span.
func Pure(v value.V) Pattern {
	return splitQueries(New(func(span tspan.Span) []hap.H {
		// splitQueries guarantees span lies within a single cycle, so it
		// is always contained in the whole below.
		whole := tspan.Span{Begin: span.Begin.Sam(), End: span.Begin.NextSam()}
		return []hap.H{hap.New(&whole, span, v)}
	}))
}

// Signal builds an analog pattern: a continuous function of pattern time.
// Every query returns exactly one Hap with Whole = nil and Value sampled
// at the query span's midpoint.
func Signal(f func(rational.R) value.V) Pattern {
	return New(func(span tspan.Span) []hap.H {
		v := f(span.Midpoint())
		return []hap.H{hap.New(nil, span, v)}
	})
}

// splitQueries wraps p so that every query is first split at integer
// ("sam") boundaries and the source is queried once per resulting
// sub-span; results are concatenated in order. Combinators that rely on
// per-cycle structure (rev, cat, iter, euclid, struct, pure) use
// this so they never have to reason about a query spanning multiple
// cycles.
func splitQueries(p Pattern) Pattern {
	inner := p.query
	out := New(func(span tspan.Span) []hap.H {
		var all []hap.H
		for _, sub := range span.CycleSpans() {
			all = append(all, inner(sub)...)
		}
		return all
	})
	out.tactus = p.tactus
	return out
}

// SplitQueries exposes splitQueries for combinators defined outside this
// file (e.g. in mini's lowering) that need the same per-cycle behaviour.
func SplitQueries(p Pattern) Pattern { return splitQueries(p) }

// withQueryTime returns a pattern that maps f over the query span's
// endpoints before delegating to p.
func withQueryTime(p Pattern, f func(rational.R) rational.R) Pattern {
	inner := p.query
	out := New(func(span tspan.Span) []hap.H {
		return inner(span.WithTime(f))
	})
	out.tactus = p.tactus
	return out
}

// withHapTime returns a pattern that maps f over the endpoints of every
// Hap's Whole and Part after querying p.
func withHapTime(p Pattern, f func(rational.R) rational.R) Pattern {
	inner := p.query
	out := New(func(span tspan.Span) []hap.H {
		haps := inner(span)
		res := make([]hap.H, len(haps))
		for i, h := range haps {
			res[i] = h.WithSpan(func(s tspan.Span) tspan.Span { return s.WithTime(f) })
		}
		return res
	})
	out.tactus = p.tactus
	return out
}

// withHaps returns a pattern whose result list is post-processed by f.
func withHaps(p Pattern, f func([]hap.H) []hap.H) Pattern {
	inner := p.query
	out := New(func(span tspan.Span) []hap.H {
		return f(inner(span))
	})
	out.tactus = p.tactus
	return out
}

// dropEmptyParts removes any Hap whose Part became empty after a
// transform (e.g. compression against a zero-width slot).
func dropEmptyParts(haps []hap.H) []hap.H {
	out := make([]hap.H, 0, len(haps))
	for _, h := range haps {
		if !h.Part.IsEmpty() {
			out = append(out, h)
		}
	}
	return out
}

// Fmap applies f to every Hap's value. This is the pattern functor map.
func (p Pattern) Fmap(f func(value.V) value.V) Pattern {
	inner := p.query
	out := New(func(span tspan.Span) []hap.H {
		haps := inner(span)
		res := make([]hap.H, len(haps))
		for i, h := range haps {
			res[i] = h.WithValue(f)
		}
		return res
	})
	out.tactus = p.tactus
	return out
}

// WithValue is an alias for Fmap, matching the spec's combinator name.
func (p Pattern) WithValue(f func(value.V) value.V) Pattern { return p.Fmap(f) }

// WithHap applies f to every Hap produced by p.
func (p Pattern) WithHap(f func(hap.H) hap.H) Pattern {
	inner := p.query
	out := New(func(span tspan.Span) []hap.H {
		haps := inner(span)
		res := make([]hap.H, len(haps))
		for i, h := range haps {
			res[i] = f(h)
		}
		return res
	})
	out.tactus = p.tactus
	return out
}
