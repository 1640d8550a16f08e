package sink

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/value"
)

// midiPreferredPatterns is a hot-plug preference list used to pick an
// output synth/interface, checked in order against the available
// output port names.
var midiPreferredPatterns = []string{"IAC", "loopMIDI", "Midi Through"}

var noteNameOffsets = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// MIDISink turns scheduled Haps into MIDI note-on/note-off pairs,
// selecting an rtmididrv output port by name preference.
type MIDISink struct {
	mu      sync.Mutex
	drv     *rtmididrv.Driver
	out     drivers.Out
	channel uint8
	logger  *slog.Logger
	timers  []*time.Timer
}

// OpenMIDISink opens an rtmidi output port whose name contains preferred
// (case-insensitive), else the first of midiPreferredPatterns that some
// port matches, falling back to the first available output if none match.
// The port is chosen once, at open.
func OpenMIDISink(preferred string, channel uint8, logger *slog.Logger) (*MIDISink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi outputs: %w", err)
	}
	if len(outs) == 0 {
		drv.Close()
		return nil, fmt.Errorf("no midi output ports available")
	}
	patterns := midiPreferredPatterns
	if preferred != "" {
		patterns = append([]string{preferred}, patterns...)
	}
	chosen := outs[0]
search:
	for _, pat := range patterns {
		for _, o := range outs {
			if containsCI(o.String(), pat) {
				chosen = o
				break search
			}
		}
	}
	if err := chosen.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open midi output %q: %w", chosen.String(), err)
	}
	logger.Info("midi: output opened", "device", chosen.String())
	return &MIDISink{drv: drv, out: chosen, channel: channel, logger: logger}, nil
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (m *MIDISink) Emit(t time.Time, val value.V, duration time.Duration, ctx hap.Context) {
	note, vel, ok := noteAndVelocity(val)
	if !ok {
		return
	}
	delay := time.Until(t)
	timer := time.AfterFunc(delay, func() {
		m.sendNoteOn(note, vel)
		m.mu.Lock()
		off := time.AfterFunc(duration, func() { m.sendNoteOff(note) })
		m.timers = append(m.timers, off)
		m.mu.Unlock()
	})
	m.mu.Lock()
	m.timers = append(m.timers, timer)
	m.mu.Unlock()
}

func (m *MIDISink) sendNoteOn(note, vel uint8) {
	if err := m.out.Send(midi.NoteOn(m.channel, note, vel)); err != nil {
		m.logger.Warn("midi: send note on failed", "note", note, "err", err)
	}
}

func (m *MIDISink) sendNoteOff(note uint8) {
	if err := m.out.Send(midi.NoteOff(m.channel, note)); err != nil {
		m.logger.Warn("midi: send note off failed", "note", note, "err", err)
	}
}

// Flush cancels every still-pending timer scheduled at or after cutoff
// would have fired; since individual timers don't carry their target
// time, Flush conservatively stops everything outstanding, matching
// stop()'s "silence immediately" contract.
func (m *MIDISink) Flush(cutoff time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = nil
}

func (m *MIDISink) Close() error {
	m.Flush(time.Time{})
	if m.out != nil {
		_ = m.out.Close()
	}
	m.drv.Close()
	return nil
}

// noteAndVelocity extracts a MIDI note number and velocity from a
// Hap's value: a "note"/"n" numeric key (or the bare number/string
// itself) selects pitch, optionally as a note name like "cs4"; "gain"
// or "velocity" scales 0-1 into the 0-127 range, defaulting to 100.
func noteAndVelocity(v value.V) (uint8, uint8, bool) {
	m := v.AsMap()
	noteVal, ok := m["note"]
	if !ok {
		noteVal, ok = m["n"]
	}
	if !ok {
		noteVal, ok = m["value"]
	}
	if !ok {
		return 0, 0, false
	}
	note, ok := noteToMIDI(noteVal)
	if !ok {
		return 0, 0, false
	}
	vel := uint8(100)
	if g, ok := m["gain"]; ok {
		if f, ok := g.AsNumber(); ok {
			vel = clampVelocity(f)
		}
	} else if vv, ok := m["velocity"]; ok {
		if f, ok := vv.AsNumber(); ok {
			vel = clampVelocity(f)
		}
	}
	return note, vel, true
}

func clampVelocity(f float64) uint8 {
	if f <= 1 {
		f *= 127
	}
	if f < 0 {
		f = 0
	}
	if f > 127 {
		f = 127
	}
	return uint8(f)
}

// noteToMIDI accepts either a bare MIDI number or a note-name string
// like "cs4" (C#4) / "af3" (Ab3), matching mini-notation's note-name
// convention.
func noteToMIDI(v value.V) (uint8, bool) {
	if n, ok := v.AsNumber(); ok && v.Kind != value.KindString {
		return uint8(n), true
	}
	s := strings.ToLower(v.AsString())
	if s == "" {
		return 0, false
	}
	offset, ok := noteNameOffsets[s[0]]
	if !ok {
		return 0, false
	}
	rest := s[1:]
	octave := 5
	for len(rest) > 0 {
		switch rest[0] {
		case 's', '#':
			offset++
			rest = rest[1:]
		case 'f':
			offset--
			rest = rest[1:]
		default:
			var n int
			if _, err := fmt.Sscanf(rest, "%d", &n); err == nil {
				octave = n
			}
			rest = ""
		}
	}
	midiNote := (octave+1)*12 + offset
	if midiNote < 0 || midiNote > 127 {
		return 0, false
	}
	return uint8(midiNote), true
}
