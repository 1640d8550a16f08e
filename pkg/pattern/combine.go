package pattern

import (
	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/tspan"
)

// Stack plays every pattern simultaneously. Haps with equal Part.Begin
// are delivered in argument order, lower subtree first.
func Stack(ps ...Pattern) Pattern {
	switch len(ps) {
	case 0:
		return Silence
	case 1:
		return ps[0]
	}
	out := New(func(span tspan.Span) []hap.H {
		var all []hap.H
		for _, p := range ps {
			all = append(all, p.Query(span)...)
		}
		return all
	})
	if t, ok := lcmTactus(ps); ok {
		out = out.WithTactus(t)
	}
	return out
}

// Cat (slowcat) plays one pattern per cycle: cycle n is served by
// pattern n mod k, slowed so that its own internal cycle numbering lines
// up with the slot it occupies.
func Cat(ps ...Pattern) Pattern {
	switch len(ps) {
	case 0:
		return Silence
	case 1:
		return ps[0]
	}
	k := int64(len(ps))
	out := splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam().Int()
		idx := ((cycle % k) + k) % k
		// Offset so the chosen pattern sees its own cycle `cycle / k`
		// (rounded towards negative infinity) rather than `cycle`.
		div := floorDiv(cycle, k)
		offset := rational.FromInt(cycle - div)
		shifted := span.WithTime(func(t rational.R) rational.R { return t.Sub(offset) })
		haps := ps[idx].Query(shifted)
		res := make([]hap.H, len(haps))
		for i, h := range haps {
			res[i] = h.WithSpan(func(s tspan.Span) tspan.Span { return s.WithTime(func(t rational.R) rational.R { return t.Add(offset) }) })
		}
		return res
	}))
	if t, ok := lcmTactus(ps); ok {
		out = out.WithTactus(t)
	}
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Fastcat packs every pattern into a single cycle, each occupying an
// equal 1/k slice. Equivalent to Cat(ps).Fast(k).
func Fastcat(ps ...Pattern) Pattern {
	switch len(ps) {
	case 0:
		return Silence
	case 1:
		return ps[0]
	}
	k := int64(len(ps))
	return Cat(ps...).Fast(rational.FromInt(k)).WithTactus(rational.FromInt(k))
}

// Sequence is an alias for Fastcat.
func Sequence(ps ...Pattern) Pattern { return Fastcat(ps...) }

// WeightedPattern pairs a pattern with the relative share of the cycle
// it should occupy, used by Timecat.
type WeightedPattern struct {
	Weight  rational.R
	Pattern Pattern
}

// Timecat packs patterns into a single cycle like Fastcat, but each
// occupies a slice proportional to its weight rather than an equal
// share.
func Timecat(wps ...WeightedPattern) Pattern {
	if len(wps) == 0 {
		return Silence
	}
	if len(wps) == 1 {
		return wps[0].Pattern
	}
	total := rational.Zero
	for _, wp := range wps {
		total = total.Add(wp.Weight)
	}
	if total.Num == 0 {
		return Silence
	}
	parts := make([]Pattern, 0, len(wps))
	pos := rational.Zero
	for _, wp := range wps {
		begin := pos.Div(total)
		pos = pos.Add(wp.Weight)
		end := pos.Div(total)
		parts = append(parts, compressArc(begin, end, wp.Pattern))
	}
	out := Stack(parts...)
	return out.WithTactus(total)
}

// compressArc squeezes p so that its first cycle is rescaled to occupy
// exactly [begin, end) of the host cycle, and is silent elsewhere.
func compressArc(begin, end rational.R, p Pattern) Pattern {
	if begin.Greater(end) || begin.Less(rational.Zero) || end.Greater(rational.One) {
		return Silence
	}
	dur := end.Sub(begin)
	if dur.Num == 0 {
		return Silence
	}
	shifted := p.Fast(rational.New(dur.Den, dur.Num)).Late(begin)
	return playWithin(begin, end, shifted)
}

// playWithin restricts haps of p to those whose part lies within
// [begin, end) of every cycle; any hap not fully contained is clipped,
// and haps with empty resulting parts are dropped.
func playWithin(begin, end rational.R, p Pattern) Pattern {
	inner := p.query
	return splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam()
		window := tspan.Span{Begin: cycle.Add(begin), End: cycle.Add(end)}
		clipped, ok := span.Intersect(window)
		if !ok {
			return nil
		}
		haps := inner(clipped)
		return dropEmptyParts(trimParts(haps, window))
	}))
}

func trimParts(haps []hap.H, window tspan.Span) []hap.H {
	out := make([]hap.H, 0, len(haps))
	for _, h := range haps {
		part, ok := h.Part.Intersect(window)
		if !ok {
			continue
		}
		h2 := h
		h2.Part = part
		out = append(out, h2)
	}
	return out
}

// Polymeter rescales each pattern so that its own tactus maps to steps
// (the shared cycle length), then stacks the results. steps is always
// given by the caller; the mini evaluator passes the largest child
// tactus when the source has no explicit "%steps".
func Polymeter(steps rational.R, ps ...Pattern) Pattern {
	if len(ps) == 0 {
		return Silence
	}
	scaled := make([]Pattern, len(ps))
	for i, p := range ps {
		t := p.TactusOr(rational.One)
		if t.Num == 0 {
			scaled[i] = Silence
			continue
		}
		factor := steps.Div(t)
		scaled[i] = p.Fast(factor)
	}
	return Stack(scaled...).WithTactus(steps)
}

// Polyrhythm stacks patterns without rescaling tactus — an alias for
// Stack kept distinct so callers can express intent.
func Polyrhythm(ps ...Pattern) Pattern { return Stack(ps...) }

func lcmTactus(ps []Pattern) (rational.R, bool) {
	var acc rational.R
	found := false
	for _, p := range ps {
		t, ok := p.Tactus()
		if !ok {
			continue
		}
		if !found {
			acc = t
			found = true
			continue
		}
		acc = lcmFrac(acc, t)
	}
	return acc, found
}

// lcmFrac computes the LCM of two Rationals represented with a common
// denominator, matching how the reference implementation combines step
// counts that may themselves be fractional.
func lcmFrac(a, b rational.R) rational.R {
	d := a.Den
	if b.Den > d {
		d = b.Den
	}
	// bring both to a common denominator d*other to compare numerators
	an := a.Num * b.Den
	bn := b.Num * a.Den
	den := a.Den * b.Den
	l := lcmInt(abs64(an), abs64(bn))
	return rational.New(l, den)
}

func lcmInt(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	return abs64(a*b) / gcdInt(a, b)
}

func gcdInt(a, b int64) int64 {
	a, b = abs64(a), abs64(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
