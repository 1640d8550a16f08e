package mini

import (
	"testing"

	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/tspan"
)

func evalValues(t *testing.T, src string) []string {
	t.Helper()
	p, cmd, err := Evaluate(src)
	if err != nil {
		t.Fatalf("Evaluate(%q) returned error: %v", src, err)
	}
	if cmd != nil {
		t.Fatalf("Evaluate(%q) returned a control command, want a pattern", src)
	}
	haps := p.Query(tspan.FromInts(0, 1))
	out := make([]string, len(haps))
	for i, h := range haps {
		out[i] = h.Value.SoundOrString()
	}
	return out
}

func assertEqualStrings(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v (len %d), want %v (len %d)", got, len(got), want, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d: got %q, want %q (full: got=%v want=%v)", i, got[i], want[i], got, want)
		}
	}
}

func TestParseSimpleSequence(t *testing.T) {
	assertEqualStrings(t, evalValues(t, "bd sn hh"), []string{"bd", "sn", "hh"})
}

func TestParseRestIsSilent(t *testing.T) {
	assertEqualStrings(t, evalValues(t, "bd ~ sn"), []string{"bd", "sn"})
}

func TestParseStack(t *testing.T) {
	got := evalValues(t, "[bd, sn]")
	assertEqualStrings(t, got, []string{"bd", "sn"})
}

func TestParseReplication(t *testing.T) {
	assertEqualStrings(t, evalValues(t, "bd!2 sn"), []string{"bd", "bd", "sn"})
}

func TestParseNumberRange(t *testing.T) {
	p, _, err := Evaluate("0 .. 3")
	if err != nil {
		t.Fatalf("Evaluate range: %v", err)
	}
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) != 4 {
		t.Fatalf("0..3 should expand to 4 elements, got %d", len(haps))
	}
	for i, h := range haps {
		n, _ := h.Value.AsNumber()
		if int(n) != i {
			t.Fatalf("element %d = %v, want %d", i, n, i)
		}
	}
}

func TestParseDescendingRange(t *testing.T) {
	p, _, err := Evaluate("3 .. 0")
	if err != nil {
		t.Fatalf("Evaluate descending range: %v", err)
	}
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) != 4 {
		t.Fatalf("3..0 should expand to 4 elements, got %d", len(haps))
	}
	n0, _ := haps[0].Value.AsNumber()
	if int(n0) != 3 {
		t.Fatalf("first element of 3..0 should be 3, got %v", n0)
	}
}

func TestParseFastModifier(t *testing.T) {
	p, _, err := Evaluate("bd*2")
	if err != nil {
		t.Fatalf("Evaluate bd*2: %v", err)
	}
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) != 2 {
		t.Fatalf("bd*2 should produce 2 haps in one cycle, got %d", len(haps))
	}
}

func TestParseEuclidModifier(t *testing.T) {
	p, _, err := Evaluate("bd(3,8)")
	if err != nil {
		t.Fatalf("Evaluate bd(3,8): %v", err)
	}
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) != 3 {
		t.Fatalf("bd(3,8) should produce 3 haps, got %d", len(haps))
	}
}

func TestParseSlowcat(t *testing.T) {
	p, _, err := Evaluate("<bd sn hh>")
	if err != nil {
		t.Fatalf("Evaluate slowcat: %v", err)
	}
	haps := p.Query(tspan.FromInts(0, 3))
	want := []string{"bd", "sn", "hh"}
	if len(haps) != len(want) {
		t.Fatalf("slowcat over 3 cycles produced %d haps, want %d", len(haps), len(want))
	}
	for i, h := range haps {
		if h.Value.SoundOrString() != want[i] {
			t.Fatalf("cycle %d = %q, want %q", i, h.Value.SoundOrString(), want[i])
		}
	}
}

func TestParseStackedSlowcat(t *testing.T) {
	p, _, err := Evaluate("<a b, c d>")
	if err != nil {
		t.Fatalf("Evaluate stacked slowcat: %v", err)
	}
	cycle0 := p.Query(tspan.FromInts(0, 1))
	cycle1 := p.Query(tspan.FromInts(1, 2))
	assertEqualStrings(t, valuesOf(cycle0), []string{"a", "c"})
	assertEqualStrings(t, valuesOf(cycle1), []string{"b", "d"})
}

func valuesOf(haps []hap.H) []string {
	out := make([]string, len(haps))
	for i, h := range haps {
		out[i] = h.Value.SoundOrString()
	}
	return out
}

func TestParseHushCommand(t *testing.T) {
	res, err := Parse("hush")
	if err != nil {
		t.Fatalf("Parse(hush): %v", err)
	}
	if res.Command == nil || res.Command.Kind != CmdHush {
		t.Fatal("Parse(hush) should return a CmdHush command")
	}
}

func TestParseSetCPSCommand(t *testing.T) {
	res, err := Parse("setcps 0.5")
	if err != nil {
		t.Fatalf("Parse(setcps 0.5): %v", err)
	}
	if res.Command == nil || res.Command.Kind != CmdSetCPS || res.Command.Value != 0.5 {
		t.Fatalf("Parse(setcps 0.5) = %+v, want CmdSetCPS{0.5}", res.Command)
	}
}

func TestParseSetBPMCommand(t *testing.T) {
	res, err := Parse("setbpm 120")
	if err != nil {
		t.Fatalf("Parse(setbpm 120): %v", err)
	}
	if res.Command == nil || res.Command.Kind != CmdSetBPM || res.Command.Value != 120 {
		t.Fatalf("Parse(setbpm 120) = %+v, want CmdSetBPM{120}", res.Command)
	}
}

func TestHushRejectsTrailingArgument(t *testing.T) {
	if _, err := Parse("hush now"); err == nil {
		t.Fatal("expected an error for 'hush now'")
	}
}

func TestTailModifierSetsSampleIndex(t *testing.T) {
	p, _, err := Evaluate("bd:3")
	if err != nil {
		t.Fatalf("Evaluate bd:3: %v", err)
	}
	haps := p.Query(tspan.FromInts(0, 1))
	if len(haps) != 1 {
		t.Fatalf("bd:3 should produce exactly one hap, got %d", len(haps))
	}
	n, ok := haps[0].Value.Map["n"].AsNumber()
	if !ok || n != 3 {
		t.Fatalf("bd:3 should set n=3, got %+v", haps[0].Value)
	}
}

func TestMalformedInputReturnsError(t *testing.T) {
	if _, _, err := Evaluate("bd("); err == nil {
		t.Fatal("expected a parse error for unterminated euclid group")
	}
}

func TestEvaluateDiagWrapsParseError(t *testing.T) {
	_, _, d := EvaluateDiag("bd(")
	if d == nil {
		t.Fatal("expected a diagnostic for malformed source")
	}
}

func TestEvaluateDeterministicAcrossRepeatedParses(t *testing.T) {
	a := evalValues(t, "bd? sn? hh?")
	b := evalValues(t, "bd? sn? hh?")
	assertEqualStrings(t, a, b)
}
