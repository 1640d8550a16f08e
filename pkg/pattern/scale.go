package pattern

import (
	"strconv"
	"strings"

	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/value"
)

// scaleTable maps a scale name to its semitone intervals from the root,
// one octave's worth of degrees. Names follow the common short-hand
// used across pattern libraries in this space.
var scaleTable = map[string][]int{
	"major":        {0, 2, 4, 5, 7, 9, 11},
	"ionian":       {0, 2, 4, 5, 7, 9, 11},
	"minor":        {0, 2, 3, 5, 7, 8, 10},
	"aeolian":      {0, 2, 3, 5, 7, 8, 10},
	"dorian":       {0, 2, 3, 5, 7, 9, 10},
	"phrygian":     {0, 1, 3, 5, 7, 8, 10},
	"lydian":       {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":   {0, 2, 4, 5, 7, 9, 10},
	"locrian":      {0, 1, 3, 5, 6, 8, 10},
	"majpent":      {0, 2, 4, 7, 9},
	"minpent":      {0, 3, 5, 7, 10},
	"chromatic":    {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	"wholetone":    {0, 2, 4, 6, 8, 10},
	"harmonic":     {0, 2, 3, 5, 7, 8, 11},
	"melodicminor": {0, 2, 3, 5, 7, 9, 11},
}

// noteNames matches the ordering used by the MIDI-facing side of this
// system so that Scale's output round-trips with note-name atoms.
var noteNames = [12]string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// degreeToNote converts a scale degree (may be negative, may exceed one
// octave) into a MIDI-relative note name plus octave offset, using
// octave 5 as the zero point to match common mini-notation convention.
func degreeToNote(scaleName string, degree int) string {
	intervals, ok := scaleTable[scaleName]
	if !ok || len(intervals) == 0 {
		intervals = scaleTable["major"]
	}
	n := len(intervals)
	octave := floorDivInt(degree, n)
	idx := degree - octave*n
	semitone := intervals[idx] + octave*12
	noteIdx := ((semitone % 12) + 12) % 12
	noteOctave := 5 + floorDivInt(semitone, 12)
	name := noteNames[noteIdx]
	return name + strconv.Itoa(noteOctave)
}

func floorDivInt(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}

// Scale reinterprets p's numeric values as scale degrees against
// scaleName, rewriting each Hap's value to the corresponding note name
// and recording the scale in the Hap's context metadata.
func (p Pattern) Scale(scaleName string) Pattern {
	name := strings.ToLower(scaleName)
	return p.WithHap(func(h hap.H) hap.H {
		degree, ok := h.Value.AsNumber()
		if !ok {
			return h
		}
		h2 := h.WithValue(func(value.V) value.V {
			return value.String(degreeToNote(name, int(degree)))
		})
		return h2.WithContext(h2.Context.WithMeta("scale", value.String(name)))
	})
}

// Target routes p's events to a named sink by recording the target
// name in each Hap's context metadata; the scheduler's sink fan-out
// reads this to pick a destination.
func (p Pattern) Target(name string) Pattern {
	return p.WithHap(func(h hap.H) hap.H {
		return h.WithContext(h.Context.WithMeta("target", value.String(name)))
	})
}
