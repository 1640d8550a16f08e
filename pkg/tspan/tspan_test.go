package tspan

import (
	"testing"

	"github.com/chase3718/strudel-go/pkg/rational"
)

func TestContains(t *testing.T) {
	s := FromInts(0, 1)
	if !s.Contains(rational.Zero) {
		t.Fatal("[0,1) should contain 0")
	}
	if s.Contains(rational.One) {
		t.Fatal("[0,1) should not contain 1 (half-open)")
	}
	if !s.Contains(rational.Half) {
		t.Fatal("[0,1) should contain 1/2")
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Span
		want bool
	}{
		{"overlapping", FromInts(0, 2), FromInts(1, 3), true},
		{"touching not overlapping", FromInts(0, 1), FromInts(1, 2), false},
		{"disjoint", FromInts(0, 1), FromInts(2, 3), false},
		{"identical", FromInts(0, 1), FromInts(0, 1), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("%v.Overlaps(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	a := FromInts(0, 2)
	b := FromInts(1, 3)
	got, ok := a.Intersect(b)
	if !ok {
		t.Fatal("expected an intersection")
	}
	want := FromInts(1, 2)
	if !got.Begin.Equal(want.Begin) || !got.End.Equal(want.End) {
		t.Fatalf("Intersect = %v, want %v", got, want)
	}

	_, ok = FromInts(0, 1).Intersect(FromInts(1, 2))
	if ok {
		t.Fatal("touching spans should not intersect")
	}
}

func TestCycleSpansSingleCycle(t *testing.T) {
	spans := FromInts(0, 1).CycleSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0] != FromInts(0, 1) {
		t.Fatalf("got %v, want [0,1)", spans[0])
	}
}

func TestCycleSpansMultiCycle(t *testing.T) {
	spans := FromInts(0, 3).CycleSpans()
	want := []Span{FromInts(0, 1), FromInts(1, 2), FromInts(2, 3)}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	for i, s := range spans {
		if !s.Begin.Equal(want[i].Begin) || !s.End.Equal(want[i].End) {
			t.Fatalf("span %d = %v, want %v", i, s, want[i])
		}
	}
}

func TestCycleSpansPartialBoundaries(t *testing.T) {
	s := New(rational.Half, rational.New(3, 2))
	spans := s.CycleSpans()
	want := []Span{
		New(rational.Half, rational.One),
		New(rational.One, rational.New(3, 2)),
	}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d", len(spans), len(want))
	}
	for i, sp := range spans {
		if !sp.Begin.Equal(want[i].Begin) || !sp.End.Equal(want[i].End) {
			t.Fatalf("span %d = %v, want %v", i, sp, want[i])
		}
	}
}

func TestDurationAndIsEmpty(t *testing.T) {
	s := FromInts(1, 4)
	if got := s.Duration(); !got.Equal(rational.FromInt(3)) {
		t.Fatalf("Duration = %v, want 3", got)
	}
	empty := FromInts(2, 2)
	if !empty.IsEmpty() {
		t.Fatal("[2,2) should be empty")
	}
	if s.IsEmpty() {
		t.Fatal("[1,4) should not be empty")
	}
}

func TestShiftAndScale(t *testing.T) {
	s := FromInts(0, 1)
	shifted := s.Shift(rational.One)
	if !shifted.Begin.Equal(rational.One) || !shifted.End.Equal(rational.FromInt(2)) {
		t.Fatalf("Shift(1) = %v, want [1,2)", shifted)
	}
	scaled := s.Scale(rational.FromInt(2))
	if !scaled.Begin.Equal(rational.Zero) || !scaled.End.Equal(rational.FromInt(2)) {
		t.Fatalf("Scale(2) = %v, want [0,2)", scaled)
	}
}
