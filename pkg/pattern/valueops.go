package pattern

import (
	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

// numOp lifts a binary float64 operation to a combinator over two
// number-valued patterns, structured by the left pattern (Struct-style:
// one output Hap per left Hap, sampling the right pattern over its
// active span).
func numOp(a, b Pattern, op func(x, y float64) float64) Pattern {
	return combineValues(a, b, func(x, y value.V) value.V {
		xn, _ := x.AsNumber()
		yn, _ := y.AsNumber()
		return value.Number(op(xn, yn))
	})
}

// Add, Sub, Mul, Div combine two number patterns pointwise, structured
// by a (the left-hand pattern's events set the timing).
func Add(a, b Pattern) Pattern { return numOp(a, b, func(x, y float64) float64 { return x + y }) }
func Sub(a, b Pattern) Pattern { return numOp(a, b, func(x, y float64) float64 { return x - y }) }
func Mul(a, b Pattern) Pattern { return numOp(a, b, func(x, y float64) float64 { return x * y }) }
func Div(a, b Pattern) Pattern {
	return numOp(a, b, func(x, y float64) float64 {
		if y == 0 {
			return 0
		}
		return x / y
	})
}

// Set replaces a's value outright with b's, keeping a's timing.
func Set(a, b Pattern) Pattern {
	return combineValues(a, b, func(_ value.V, y value.V) value.V { return y })
}

// UnionLeft merges a and b's values as maps, a's keys winning on
// collision ("∪").
func UnionLeft(a, b Pattern) Pattern {
	return combineValues(a, b, value.MergeLeft)
}

// UnionRight merges a and b's values as maps, b's keys winning on
// collision ("#").
func UnionRight(a, b Pattern) Pattern {
	return combineValues(a, b, value.MergeRight)
}

// combineValues structures the result by a's events (as Struct does),
// sampling b over each of a's active spans and combining with f.
func combineValues(a, b Pattern, f func(x, y value.V) value.V) Pattern {
	aq := a.query
	bq := b.query
	out := splitQueries(New(func(span tspan.Span) []hap.H {
		var result []hap.H
		for _, ah := range aq(span) {
			active := ah.WholeOrPart()
			for _, bh := range bq(active) {
				part, ok := ah.Part.Intersect(bh.Part)
				if !ok {
					continue
				}
				combined := f(ah.Value, bh.Value)
				h := hap.New(ah.Whole, part, combined).WithContext(ah.Context.Combine(bh.Context))
				result = append(result, h)
			}
		}
		return result
	}))
	out.tactus = a.tactus
	return dropEmptyPartsPattern(out)
}

// Segment resamples p into n discrete Haps per cycle, each carrying the
// value p yields when queried over that slot; for an analog Signal that
// is its value at the slot's midpoint, not at its onset. Commonly used to discretise an
// analog signal (Rand, Signal) into steppable Haps.
func (p Pattern) Segment(n int) Pattern {
	if n <= 0 {
		return Silence
	}
	structure := Fastcat(repeatPure(n)...)
	return structure.Struct2Value(p)
}

func repeatPure(n int) []Pattern {
	out := make([]Pattern, n)
	for i := range out {
		out[i] = Pure(value.Bool(true))
	}
	return out
}

// Struct2Value is Struct with the roles reversed: the receiver supplies
// timing, vals supplies the sampled value. Segment builds on this.
func (p Pattern) Struct2Value(vals Pattern) Pattern {
	return vals.Struct(p)
}

// Discretise is an alias for Segment matching the naming used for
// analog-to-digital conversion elsewhere in the combinator set.
func (p Pattern) Discretise(n int) Pattern { return p.Segment(n) }

// Range rescales a Signal's [0,1) numeric output into [lo, hi).
func (p Pattern) Range(lo, hi float64) Pattern {
	return p.Fmap(func(v value.V) value.V {
		n, _ := v.AsNumber()
		return value.Number(lo + n*(hi-lo))
	})
}
