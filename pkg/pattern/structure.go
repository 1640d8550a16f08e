package pattern

import (
	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

// Struct queries structure once per cycle; for every truthy Hap it
// produces, it samples p's value at the structure Hap's whole-or-part
// and emits a new Hap carrying the structure's timing and p's value.
// Falsy structure Haps produce no output, matching the boolean-mask
// convention shared with Mask.
func (p Pattern) Struct(structure Pattern) Pattern {
	return applyStructure(structure, p, true)
}

// Mask keeps only the Haps of p whose active span overlaps a truthy Hap
// of mask; it does not replace p's value or timing.
func (p Pattern) Mask(mask Pattern) Pattern {
	return applyStructure(mask, p, false)
}

func applyStructure(structure, vals Pattern, takeValue bool) Pattern {
	structQ := structure.query
	valQ := vals.query
	out := splitQueries(New(func(span tspan.Span) []hap.H {
		var result []hap.H
		for _, sh := range structQ(span) {
			if !sh.Value.Truthy() {
				continue
			}
			active := sh.WholeOrPart()
			for _, vh := range valQ(active) {
				part, ok := sh.Part.Intersect(vh.Part)
				if !ok {
					continue
				}
				var val value.V
				var whole *tspan.Span
				if takeValue {
					val = vh.Value
					whole = sh.Whole
				} else {
					val = vh.Value
					whole = vh.Whole
				}
				h := hap.New(whole, part, val).WithContext(sh.Context.Combine(vh.Context))
				result = append(result, h)
			}
		}
		return result
	}))
	out.tactus = structure.tactus
	return dropEmptyPartsPattern(out)
}

func dropEmptyPartsPattern(p Pattern) Pattern {
	return withHaps(p, dropEmptyParts)
}

// Bjorklund computes the classic Euclidean rhythm bitmap: pulse onsets
// spread as evenly as possible across step slots, then rotated left by
// rotation (mod step).
func Bjorklund(pulse, step, rotation int) []bool {
	if step <= 0 {
		return nil
	}
	if pulse <= 0 {
		return make([]bool, step)
	}
	if pulse >= step {
		out := make([]bool, step)
		for i := range out {
			out[i] = true
		}
		return rotateBits(out, rotation)
	}

	groups := make([][]bool, pulse)
	for i := range groups {
		groups[i] = []bool{true}
	}
	remainder := make([][]bool, step-pulse)
	for i := range remainder {
		remainder[i] = []bool{false}
	}

	for len(remainder) > 1 {
		n := len(groups)
		if n > len(remainder) {
			n = len(remainder)
		}
		newGroups := make([][]bool, 0, n)
		for i := 0; i < n; i++ {
			newGroups = append(newGroups, append(append([]bool{}, groups[i]...), remainder[i]...))
		}
		leftoverGroups := groups[n:]
		leftoverRemainder := remainder[n:]
		groups = newGroups
		remainder = leftoverRemainder
		if len(leftoverGroups) > 0 {
			remainder = append(remainder, leftoverGroups...)
		}
		if len(remainder) <= 1 {
			break
		}
	}

	var flat []bool
	for _, g := range groups {
		flat = append(flat, g...)
	}
	for _, g := range remainder {
		flat = append(flat, g...)
	}
	return rotateBits(flat, rotation)
}

func rotateBits(bits []bool, rotation int) []bool {
	n := len(bits)
	if n == 0 {
		return bits
	}
	r := ((rotation % n) + n) % n
	if r == 0 {
		return bits
	}
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = bits[(i+r)%n]
	}
	return out
}

// Euclid keeps only the Haps of p that land on a Bjorklund(pulse, step,
// rotation) onset slot, queried one cycle at a time.
func (p Pattern) Euclid(pulse, step, rotation int) Pattern {
	bits := Bjorklund(pulse, step, rotation)
	if len(bits) == 0 {
		return Silence
	}
	structSlots := make([]Pattern, len(bits))
	for i, on := range bits {
		structSlots[i] = Pure(value.Bool(on))
	}
	structure := Fastcat(structSlots...)
	return p.Struct(structure)
}

// EuclidInv is Euclid with the bitmap inverted, keeping the rests
// instead of the pulses.
func (p Pattern) EuclidInv(pulse, step, rotation int) Pattern {
	bits := Bjorklund(pulse, step, rotation)
	if len(bits) == 0 {
		return Silence
	}
	structSlots := make([]Pattern, len(bits))
	for i, on := range bits {
		structSlots[i] = Pure(value.Bool(!on))
	}
	structure := Fastcat(structSlots...)
	return p.Struct(structure)
}

// Off plays p together with a copy shifted later by t and transformed
// by f, e.g. Off(rational.New(1,8), func(p) { return p.Fast(two) }).
func (p Pattern) Off(t rational.R, f func(Pattern) Pattern) Pattern {
	return Stack(p, f(p.Late(t)))
}

// Every applies f to p once every n cycles (on cycle 0, n, 2n, ...), and
// leaves it unchanged otherwise.
func (p Pattern) Every(n int, f func(Pattern) Pattern) Pattern {
	return p.EveryOffset(n, 0, f)
}

// EveryOffset applies f on cycles where (cycle mod n) == offset.
func (p Pattern) EveryOffset(n, offset int, f func(Pattern) Pattern) Pattern {
	if n <= 0 {
		return p
	}
	transformed := f(p)
	return splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam().Int()
		m := ((cycle % int64(n)) + int64(n)) % int64(n)
		if m == int64(offset) {
			return transformed.Query(span)
		}
		return p.Query(span)
	}))
}

// Chunk divides the cycle into n equal parts and applies f to whichever
// part is active on the current cycle, cycling through parts over n
// cycles.
func (p Pattern) Chunk(n int, f func(Pattern) Pattern) Pattern {
	if n <= 0 {
		return p
	}
	transformed := f(p)
	return splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam().Int()
		idx := ((cycle % int64(n)) + int64(n)) % int64(n)
		begin := rational.New(idx, int64(n))
		end := rational.New(idx+1, int64(n))
		withinA := playWithin(begin, end, transformed)
		withinB := playWithinOutside(begin, end, p)
		return Stack(withinA, withinB).Query(span)
	}))
}

// playWithinOutside is the complement of playWithin: it keeps the parts
// of p that fall outside [begin, end) of every cycle.
func playWithinOutside(begin, end rational.R, p Pattern) Pattern {
	inner := p.query
	return splitQueries(New(func(span tspan.Span) []hap.H {
		cycle := span.Begin.Sam()
		window := tspan.Span{Begin: cycle.Add(begin), End: cycle.Add(end)}
		var result []hap.H
		before := tspan.Span{Begin: cycle, End: window.Begin}
		after := tspan.Span{Begin: window.End, End: cycle.Add(rational.One)}
		for _, w := range []tspan.Span{before, after} {
			clipped, ok := span.Intersect(w)
			if !ok {
				continue
			}
			result = append(result, trimParts(inner(clipped), w)...)
		}
		return dropEmptyParts(result)
	}))
}
