package hap

import (
	"testing"

	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

func TestWholeOrPart(t *testing.T) {
	part := tspan.FromInts(0, 1)
	discrete := New(&part, part, value.Number(1))
	if got := discrete.WholeOrPart(); got != part {
		t.Fatalf("discrete WholeOrPart = %v, want %v", got, part)
	}

	analog := New(nil, part, value.Number(1))
	if got := analog.WholeOrPart(); got != part {
		t.Fatalf("analog WholeOrPart = %v, want Part %v", got, part)
	}
}

func TestHasOnset(t *testing.T) {
	whole := tspan.FromInts(0, 1)
	onset := New(&whole, whole, value.Number(1))
	if !onset.HasOnset() {
		t.Fatal("Part == Whole should have an onset")
	}

	later := tspan.FromInts(0, 1).Midpoint()
	part := tspan.New(later, whole.End)
	noOnset := New(&whole, part, value.Number(1))
	if noOnset.HasOnset() {
		t.Fatal("a part starting after whole's begin should not have an onset")
	}

	analog := New(nil, whole, value.Number(1))
	if analog.HasOnset() {
		t.Fatal("an analog hap (nil Whole) never has an onset")
	}
}

func TestWithValue(t *testing.T) {
	part := tspan.FromInts(0, 1)
	h := New(&part, part, value.Number(1))
	h2 := h.WithValue(func(v value.V) value.V {
		n, _ := v.AsNumber()
		return value.Number(n + 1)
	})
	if n, _ := h2.Value.AsNumber(); n != 2 {
		t.Fatalf("WithValue result = %v, want 2", n)
	}
	if n, _ := h.Value.AsNumber(); n != 1 {
		t.Fatal("WithValue must not mutate the original Hap")
	}
}

func TestWithSpanPreservesNilWhole(t *testing.T) {
	part := tspan.FromInts(0, 1)
	h := New(nil, part, value.Number(1))
	shifted := h.WithSpan(func(s tspan.Span) tspan.Span { return s.Shift(part.Duration()) })
	if shifted.Whole != nil {
		t.Fatal("WithSpan on an analog hap should keep Whole nil")
	}
	if shifted.Part == part {
		t.Fatal("WithSpan should have shifted Part")
	}
}

func TestWithWholeClones(t *testing.T) {
	part := tspan.FromInts(0, 1)
	whole := tspan.FromInts(0, 1)
	h := New(&whole, part, value.Number(1))
	replacement := tspan.FromInts(5, 6)
	h2 := h.WithWhole(&replacement)
	replacement = tspan.FromInts(99, 100) // mutate the caller's copy
	if h2.Whole.Begin.Int() != 5 {
		t.Fatal("WithWhole should clone, not alias, the provided span")
	}
}

func TestContextCombine(t *testing.T) {
	a := Context{Locations: []Location{{0, 1}}, Metadata: map[string]value.V{"target": value.String("synth")}}
	b := Context{Locations: []Location{{2, 3}}, Metadata: map[string]value.V{"gain": value.Number(0.5)}}
	c := a.Combine(b)
	if len(c.Locations) != 2 {
		t.Fatalf("Combine should concatenate locations, got %d", len(c.Locations))
	}
	if c.Metadata["target"].Str != "synth" || c.Metadata["gain"].Num != 0.5 {
		t.Fatal("Combine should union metadata from both contexts")
	}
}

func TestContextWithMetaOverlayWins(t *testing.T) {
	a := Context{Metadata: map[string]value.V{"target": value.String("synth")}}
	b := a.WithMeta("target", value.String("drums"))
	if b.Metadata["target"].Str != "drums" {
		t.Fatal("WithMeta should overwrite an existing key")
	}
	if a.Metadata["target"].Str != "synth" {
		t.Fatal("WithMeta must not mutate the receiver")
	}
}
