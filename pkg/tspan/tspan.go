// Package tspan implements the half-open time interval used to query
// patterns and to bound the events they return.
package tspan

import (
	"fmt"

	"github.com/chase3718/strudel-go/pkg/rational"
)

// Span is a half-open interval [Begin, End) measured in cycles.
type Span struct {
	Begin rational.R
	End   rational.R
}

// New builds a Span. Begin must not be greater than End; callers that
// construct spans from arithmetic are expected to maintain this.
func New(begin, end rational.R) Span {
	return Span{Begin: begin, End: end}
}

// FromInts is a convenience constructor for whole-cycle spans.
func FromInts(begin, end int64) Span {
	return Span{Begin: rational.FromInt(begin), End: rational.FromInt(end)}
}

// Duration returns End - Begin.
func (s Span) Duration() rational.R { return s.End.Sub(s.Begin) }

// IsEmpty reports whether the span has zero duration.
func (s Span) IsEmpty() bool { return s.Begin.Equal(s.End) }

// Contains reports whether t falls within the half-open interval.
func (s Span) Contains(t rational.R) bool {
	return t.GreaterEq(s.Begin) && t.Less(s.End)
}

// Overlaps reports whether s and o share any point in time.
func (s Span) Overlaps(o Span) bool {
	return s.Begin.Less(o.End) && o.Begin.Less(s.End)
}

// Intersect returns the overlapping portion of s and o, and whether one
// exists. A touching-but-not-overlapping pair (e.g. [0,1) and [1,2))
// yields an empty span and ok=false.
func (s Span) Intersect(o Span) (Span, bool) {
	if !s.Overlaps(o) {
		return Span{}, false
	}
	return Span{Begin: rational.Max(s.Begin, o.Begin), End: rational.Min(s.End, o.End)}, true
}

// Midpoint returns the midpoint of the span, used by analog patterns to
// sample a single representative value.
func (s Span) Midpoint() rational.R {
	return s.Begin.Add(s.End).Mul(rational.Half)
}

// Shift translates the span by offset.
func (s Span) Shift(offset rational.R) Span {
	return Span{Begin: s.Begin.Add(offset), End: s.End.Add(offset)}
}

// Scale multiplies both endpoints by factor.
func (s Span) Scale(factor rational.R) Span {
	return Span{Begin: s.Begin.Mul(factor), End: s.End.Mul(factor)}
}

// WithTime applies f to both endpoints, producing a new Span.
func (s Span) WithTime(f func(rational.R) rational.R) Span {
	return Span{Begin: f(s.Begin), End: f(s.End)}
}

// CycleSpans splits s at every integer ("sam") boundary it crosses and
// returns one Span per cycle touched, clipped to s. A pattern combinator
// that needs to reason about per-cycle structure (rev, cat, iter,
// euclid, struct) queries its source once per element of this slice and
// concatenates the results, rather than handling multi-cycle arcs itself.
func (s Span) CycleSpans() []Span {
	if s.IsEmpty() {
		return []Span{s}
	}
	var out []Span
	begin := s.Begin
	for begin.Less(s.End) {
		end := rational.Min(begin.NextSam(), s.End)
		out = append(out, Span{Begin: begin, End: end})
		begin = end
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("[%s, %s)", s.Begin, s.End)
}
