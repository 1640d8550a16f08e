package pattern

import (
	"testing"

	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

func queryNumbers(p Pattern) []float64 {
	haps := p.Query(tspan.FromInts(0, 1))
	out := make([]float64, len(haps))
	for i, h := range haps {
		n, _ := h.Value.AsNumber()
		out[i] = n
	}
	return out
}

func TestAddCombinesPointwise(t *testing.T) {
	a := Pure(value.Number(1))
	b := Pure(value.Number(2))
	got := queryNumbers(Add(a, b))
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("Add(1,2) = %v, want [3]", got)
	}
}

func TestSubMulDiv(t *testing.T) {
	a := Pure(value.Number(10))
	b := Pure(value.Number(4))
	if got := queryNumbers(Sub(a, b)); got[0] != 6 {
		t.Fatalf("Sub(10,4) = %v, want 6", got)
	}
	if got := queryNumbers(Mul(a, b)); got[0] != 40 {
		t.Fatalf("Mul(10,4) = %v, want 40", got)
	}
	if got := queryNumbers(Div(a, b)); got[0] != 2.5 {
		t.Fatalf("Div(10,4) = %v, want 2.5", got)
	}
}

func TestDivByZeroYieldsZero(t *testing.T) {
	a := Pure(value.Number(5))
	b := Pure(value.Number(0))
	got := queryNumbers(Div(a, b))
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("Div(5,0) = %v, want [0]", got)
	}
}

func TestSetReplacesValueKeepsTiming(t *testing.T) {
	a := Pure(value.Number(1))
	b := Pure(value.Number(2))
	got := queryNumbers(Set(a, b))
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("Set(1,2) = %v, want [2]", got)
	}
}

func TestUnionLeftKeepsLeftOnCollision(t *testing.T) {
	a := Pure(value.MapOf("n", value.Number(1)))
	b := Pure(value.MapOf("n", value.Number(2), "s", value.String("bd")))
	out := UnionLeft(a, b).Query(tspan.FromInts(0, 1))
	if len(out) != 1 {
		t.Fatalf("UnionLeft produced %d haps, want 1", len(out))
	}
	n, _ := out[0].Value.Map["n"].AsNumber()
	if n != 1 {
		t.Fatalf("UnionLeft n = %v, want 1 (left wins)", n)
	}
	if out[0].Value.Map["s"].AsString() != "bd" {
		t.Fatal("UnionLeft should still carry non-colliding keys from the right")
	}
}

func TestUnionRightKeepsRightOnCollision(t *testing.T) {
	a := Pure(value.MapOf("n", value.Number(1)))
	b := Pure(value.MapOf("n", value.Number(2)))
	out := UnionRight(a, b).Query(tspan.FromInts(0, 1))
	n, _ := out[0].Value.Map["n"].AsNumber()
	if n != 2 {
		t.Fatalf("UnionRight n = %v, want 2 (right wins)", n)
	}
}

func TestSegmentProducesNDiscreteSteps(t *testing.T) {
	p := Rand(1).Segment(4)
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) != 4 {
		t.Fatalf("Segment(4) produced %d haps, want 4", len(haps))
	}
	for _, h := range haps {
		if !h.HasOnset() {
			t.Fatal("Segment should produce discrete, onset-bearing haps")
		}
	}
}

func TestRangeRescalesZeroToOne(t *testing.T) {
	p := Pure(value.Number(0.5)).Range(10, 20)
	got := queryNumbers(p)
	if len(got) != 1 || got[0] != 15 {
		t.Fatalf("Range(10,20) at 0.5 = %v, want [15]", got)
	}
}

func TestScaleMapsDegreeToNoteName(t *testing.T) {
	p := Pure(value.Number(0)).Scale("major")
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) != 1 {
		t.Fatalf("Scale produced %d haps, want 1", len(haps))
	}
	if got := haps[0].Value.AsString(); got != "c5" {
		t.Fatalf("degree 0 of major scale = %q, want %q", got, "c5")
	}
}

func TestScaleWrapsOctaveOnOverflow(t *testing.T) {
	p := Pure(value.Number(7)).Scale("major")
	haps := p.Query(tspan.FromInts(0, 1))
	if got := haps[0].Value.AsString(); got != "c6" {
		t.Fatalf("degree 7 of major scale = %q, want %q (one octave up)", got, "c6")
	}
}

func TestScaleNegativeDegreeWrapsDown(t *testing.T) {
	p := Pure(value.Number(-1)).Scale("major")
	haps := p.Query(tspan.FromInts(0, 1))
	if got := haps[0].Value.AsString(); got != "b4" {
		t.Fatalf("degree -1 of major scale = %q, want %q", got, "b4")
	}
}

func TestTargetRecordsMetadataWithoutChangingValue(t *testing.T) {
	p := Pure(value.String("bd")).Target("midi")
	haps := p.Query(tspan.FromInts(0, 1))
	if haps[0].Value.AsString() != "bd" {
		t.Fatal("Target should not change the carried value")
	}
	if got := haps[0].Context.Metadata["target"].AsString(); got != "midi" {
		t.Fatalf("Target metadata = %q, want %q", got, "midi")
	}
}
