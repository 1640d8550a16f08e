package pattern

import (
	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/tspan"
)

// Fast speeds p up by factor: the query span is scaled up by factor
// before querying the source, and the resulting Haps' times are scaled
// back down by the same factor. factor == 0 is a degenerate query (it
// would require dividing hap time by zero) and is rejected rather than
// silently producing NaN-like garbage.
func (p Pattern) Fast(factor rational.R) Pattern {
	if factor.Num == 0 {
		panic("pattern: fast(0) is undefined")
	}
	out := withHapTime(withQueryTime(p, func(t rational.R) rational.R { return t.Mul(factor) }),
		func(t rational.R) rational.R { return t.Div(factor) })
	if t, ok := p.Tactus(); ok {
		out = out.WithTactus(t)
	}
	return out
}

// Slow is Fast(1/factor).
func (p Pattern) Slow(factor rational.R) Pattern {
	if factor.Num == 0 {
		panic("pattern: slow(0) is undefined")
	}
	return p.Fast(rational.New(factor.Den, factor.Num))
}

// shift is the implementation shared by Early and Late: query time is
// offset by -t, hap time by +t, so positive t moves the pattern later.
func (p Pattern) shift(t rational.R) Pattern {
	return withHapTime(withQueryTime(p, func(q rational.R) rational.R { return q.Sub(t) }),
		func(q rational.R) rational.R { return q.Add(t) })
}

// Early shifts p to play t cycles sooner.
func (p Pattern) Early(t rational.R) Pattern { return p.shift(t.Neg()) }

// Late shifts p to play t cycles later.
func (p Pattern) Late(t rational.R) Pattern { return p.shift(t) }

// Rev reflects p within each cycle it is queried over: for every cycle
// [n, n+1) the mirrored arc is queried and the returned times are
// reflected back across that cycle's midpoint. Each cycle's Haps are
// returned in the reverse of the source's order.
func (p Pattern) Rev() Pattern {
	inner := p.query
	out := splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam()
		next := cycle.Add(rational.One)
		reflect := func(t rational.R) rational.R {
			// mirror t around the cycle: cycle + (next - t)
			return cycle.Add(next.Sub(t))
		}
		mirrored := tspan.Span{Begin: reflect(span.End), End: reflect(span.Begin)}
		haps := inner(mirrored)
		res := make([]hap.H, len(haps))
		for i, h := range haps {
			res[len(haps)-1-i] = h.WithSpan(func(s tspan.Span) tspan.Span {
				return tspan.Span{Begin: reflect(s.End), End: reflect(s.Begin)}
			})
		}
		return res
	}))
	out.tactus = p.tactus
	return out
}

// Ply replaces each Hap from p with n evenly-sized copies that subdivide
// its Whole. n <= 1 returns p unchanged.
func (p Pattern) Ply(n int) Pattern {
	if n <= 1 {
		return p
	}
	inner := p.query
	return New(func(span tspan.Span) []hap.H {
		var out []hap.H
		for _, h := range inner(span) {
			whole := h.WholeOrPart()
			dur := whole.Duration().Div(rational.FromInt(int64(n)))
			for i := 0; i < n; i++ {
				sub := tspan.Span{
					Begin: whole.Begin.Add(dur.Mul(rational.FromInt(int64(i)))),
					End:   whole.Begin.Add(dur.Mul(rational.FromInt(int64(i + 1)))),
				}
				part, ok := sub.Intersect(span)
				if !ok {
					continue
				}
				w := sub
				out = append(out, hap.New(&w, part, h.Value).WithContext(h.Context))
			}
		}
		return out
	})
}

// Iter rotates each cycle by k/n, where k increments by one every cycle
// (wrapping modulo n). IterBack does the same but counts down.
func (p Pattern) Iter(n int) Pattern {
	return p.iterDirection(n, 1)
}

func (p Pattern) IterBack(n int) Pattern {
	return p.iterDirection(n, -1)
}

func (p Pattern) iterDirection(n int, dir int) Pattern {
	if n <= 0 {
		return p
	}
	inner := p
	return splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam().Int()
		k := ((cycle%int64(n))*int64(dir)%int64(n) + int64(n)) % int64(n)
		offset := rational.New(k, int64(n))
		return inner.Early(offset).Query(span)
	}))
}
