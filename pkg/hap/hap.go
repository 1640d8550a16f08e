// Package hap implements the Hap (Happening) — a single timed event
// produced by querying a Pattern.
package hap

import (
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

// Location is a back-reference to a span of mini-notation source text,
// used by visual highlighters. The pattern engine only ever propagates
// these through combinators; the mini evaluator does not attach any, so
// Haps lowered from mini-notation carry no locations.
type Location struct {
	Begin, End int
}

// Context carries non-temporal metadata that rides along with a Hap:
// source locations for highlighting, plus a small open metadata bag used
// by supplemented combinators like Target and Scale.
type Context struct {
	Locations []Location
	Metadata  map[string]value.V
}

// Combine merges two contexts, concatenating locations and overlaying
// metadata (the argument's entries win on key collision).
func (c Context) Combine(o Context) Context {
	locs := make([]Location, 0, len(c.Locations)+len(o.Locations))
	locs = append(locs, c.Locations...)
	locs = append(locs, o.Locations...)
	meta := map[string]value.V{}
	for k, v := range c.Metadata {
		meta[k] = v
	}
	for k, v := range o.Metadata {
		meta[k] = v
	}
	return Context{Locations: locs, Metadata: meta}
}

// WithMeta returns a copy of c with key set to v.
func (c Context) WithMeta(key string, v value.V) Context {
	meta := map[string]value.V{}
	for k, existing := range c.Metadata {
		meta[k] = existing
	}
	meta[key] = v
	return Context{Locations: c.Locations, Metadata: meta}
}

// H is one event: a value active during Part, logically spanning Whole
// (when discrete) or continuously sampled (when Whole is nil, i.e. an
// "analog" event).
type H struct {
	Whole   *tspan.Span
	Part    tspan.Span
	Value   value.V
	Context Context
}

// New builds a Hap with an empty context.
func New(whole *tspan.Span, part tspan.Span, val value.V) H {
	return H{Whole: whole, Part: part, Value: val}
}

// WholeOrPart returns Whole if present, otherwise Part — the event's best
// available notion of its full temporal extent.
func (h H) WholeOrPart() tspan.Span {
	if h.Whole != nil {
		return *h.Whole
	}
	return h.Part
}

// HasOnset reports whether Part begins exactly where Whole begins, i.e.
// this Hap carries the event's onset rather than a fragment of it.
func (h H) HasOnset() bool {
	if h.Whole == nil {
		return false
	}
	return h.Whole.Begin.Equal(h.Part.Begin)
}

// WithValue returns a copy of h with f applied to its Value.
func (h H) WithValue(f func(value.V) value.V) H {
	h2 := h
	h2.Value = f(h.Value)
	return h2
}

// WithSpan returns a copy of h with f applied to both Whole (if present)
// and Part.
func (h H) WithSpan(f func(tspan.Span) tspan.Span) H {
	h2 := h
	h2.Part = f(h.Part)
	if h.Whole != nil {
		w := f(*h.Whole)
		h2.Whole = &w
	}
	return h2
}

// Duration returns the extent of Whole, or of Part if Whole is absent.
func (h H) Duration() rational.R {
	return h.WholeOrPart().Duration()
}

func cloneSpan(s tspan.Span) *tspan.Span {
	c := s
	return &c
}

// WithWhole returns a copy of h with Whole replaced.
func (h H) WithWhole(whole *tspan.Span) H {
	h2 := h
	if whole != nil {
		h2.Whole = cloneSpan(*whole)
	} else {
		h2.Whole = nil
	}
	return h2
}

// WithContext returns a copy of h with Context replaced.
func (h H) WithContext(ctx Context) H {
	h2 := h
	h2.Context = ctx
	return h2
}
