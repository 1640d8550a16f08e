// Package rational implements exact fractional arithmetic for pattern time.
//
// All cycle-time values in strudel-go are Rationals, never floats: floats
// accumulate rounding error across thousands of cycles and make cycle
// boundaries ambiguous. A Rational is always kept reduced with a positive
// denominator.
package rational

import (
	"fmt"
	"math"
)

// R is an exact numerator/denominator pair, always stored in reduced form
// with a positive denominator.
type R struct {
	Num int64
	Den int64
}

// Zero, One and Half are convenience constants used throughout the pattern
// algebra.
var (
	Zero = New(0, 1)
	One  = New(1, 1)
	Half = New(1, 2)
)

// New builds a reduced Rational. Panics if den is zero, matching the
// reference implementation's behaviour for a genuinely unrepresentable
// value.
func New(num, den int64) R {
	if den == 0 {
		panic("rational: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g == 0 {
		g = 1
	}
	return R{Num: num / g, Den: den / g}
}

// FromInt builds a whole-number Rational.
func FromInt(n int64) R { return R{Num: n, Den: 1} }

// FromFloat approximates f with a large fixed denominator. Used only at
// the boundary where a host passes a float tempo or duration; pattern-time
// arithmetic itself never touches floats.
func FromFloat(f float64) R {
	const scale = 1_000_000
	return New(int64(math.Round(f*scale)), scale)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

// lcm returns the least common multiple of two positive integers.
func lcm(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	return abs(a*b) / gcd(abs(a), abs(b))
}

// mulOverflows reports whether a*b would overflow an int64.
func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	r := a * b
	return r/b != a
}

// Add returns r + o, reduced. Panics on int64 overflow in the
// cross-multiplication — a real overflow means cycle counts well beyond
// any sane session length.
func (r R) Add(o R) R {
	d := lcm(r.Den, o.Den)
	if mulOverflows(r.Num, d/r.Den) || mulOverflows(o.Num, d/o.Den) {
		panic("rational: addition overflow")
	}
	n1 := r.Num * (d / r.Den)
	n2 := o.Num * (d / o.Den)
	checkOverflow(n1, n2, d)
	return New(n1+n2, d)
}

// Sub returns r - o, reduced.
func (r R) Sub(o R) R { return r.Add(o.Neg()) }

// Neg returns -r.
func (r R) Neg() R { return R{Num: -r.Num, Den: r.Den} }

// Mul returns r * o, reduced.
func (r R) Mul(o R) R {
	if mulOverflows(r.Num, o.Num) || mulOverflows(r.Den, o.Den) {
		panic("rational: multiplication overflow")
	}
	return New(r.Num*o.Num, r.Den*o.Den)
}

// Div returns r / o, reduced. Panics if o is zero.
func (r R) Div(o R) R {
	if o.Num == 0 {
		panic("rational: division by zero")
	}
	return r.Mul(R{Num: o.Den, Den: o.Num})
}

// Mod returns r mod o in the mathematical sense (result has the sign of
// o and satisfies 0 <= |result| < |o|), matching a cyclic-time modulus.
func (r R) Mod(o R) R {
	q := r.Div(o)
	f := q.Floor()
	return r.Sub(f.Mul(o))
}

func checkOverflow(n1, n2, d int64) {
	if d == 0 {
		panic("rational: degenerate lcm")
	}
	s := n1 + n2
	if (n1 > 0 && n2 > 0 && s < 0) || (n1 < 0 && n2 < 0 && s > 0) {
		panic("rational: addition overflow")
	}
}

// Cmp returns -1, 0 or 1 as r is less than, equal to, or greater than o.
func (r R) Cmp(o R) int {
	d := lcm(r.Den, o.Den)
	n1 := r.Num * (d / r.Den)
	n2 := o.Num * (d / o.Den)
	switch {
	case n1 < n2:
		return -1
	case n1 > n2:
		return 1
	default:
		return 0
	}
}

func (r R) Less(o R) bool      { return r.Cmp(o) < 0 }
func (r R) LessEq(o R) bool    { return r.Cmp(o) <= 0 }
func (r R) Greater(o R) bool   { return r.Cmp(o) > 0 }
func (r R) GreaterEq(o R) bool { return r.Cmp(o) >= 0 }
func (r R) Equal(o R) bool     { return r.Cmp(o) == 0 }

// Min returns whichever of r, o compares smaller.
func Min(r, o R) R {
	if r.Less(o) {
		return r
	}
	return o
}

// Max returns whichever of r, o compares larger.
func Max(r, o R) R {
	if r.Greater(o) {
		return r
	}
	return o
}

// Floor rounds r down towards negative infinity, to a whole Rational.
func (r R) Floor() R {
	q := r.Num / r.Den
	if r.Num%r.Den != 0 && (r.Num < 0) != (r.Den < 0) {
		q--
	}
	return FromInt(q)
}

// Ceil rounds r up towards positive infinity, to a whole Rational.
func (r R) Ceil() R {
	f := r.Floor()
	if f.Equal(r) {
		return f
	}
	return f.Add(One)
}

// Sam returns the integer part of r — the index of the cycle containing
// r — as a whole Rational. Alias for Floor kept because "sam" is the
// name used throughout the pattern-algebra literature this repo follows.
func (r R) Sam() R { return r.Floor() }

// NextSam returns the start of the cycle following the one containing r.
func (r R) NextSam() R { return r.Sam().Add(One) }

// CyclePos returns r's offset from the start of its own cycle, in [0, 1).
func (r R) CyclePos() R { return r.Sub(r.Sam()) }

// IsWhole reports whether r has no fractional part.
func (r R) IsWhole() bool { return r.Den == 1 }

// Int truncates r towards zero and returns it as an int64. Used where a
// Rational is known to be a whole cycle index.
func (r R) Int() int64 {
	return r.Num / r.Den
}

// Float returns a float64 approximation of r, used only for host-facing
// boundaries (e.g. analog signal sampling, wall-clock conversion).
func (r R) Float() float64 {
	return float64(r.Num) / float64(r.Den)
}

func (r R) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
