// Package sink implements the scheduler's output side: the Sink
// interface every event lands on, plus concrete sinks (structured
// logging, MIDI, checksummed serial frames) and a fan-out that routes
// by a Hap's "target" metadata.
package sink

import (
	"log/slog"
	"time"

	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/value"
)

// Sink is the scheduler's output collaborator. Emit is called
// once per Hap the scheduler decides to fire, with an absolute
// host-clock trigger time; the sink owns dispatch (synth, MIDI, OSC,
// whatever) and must not block the scheduler for long.
type Sink interface {
	Emit(t time.Time, val value.V, duration time.Duration, ctx hap.Context)
	// Flush is called on stop(); implementations that buffer should
	// drop or flush anything scheduled after cutoff.
	Flush(cutoff time.Time)
	Close() error
}

// LogSink is the default/development sink: it logs every emitted event
// through slog rather than driving real hardware or audio.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink builds a LogSink. A nil logger falls back to slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(t time.Time, val value.V, duration time.Duration, ctx hap.Context) {
	s.logger.Info("hap", "at", t.Format(time.RFC3339Nano), "value", val.AsString(), "dur", duration)
}

func (s *LogSink) Flush(cutoff time.Time) {}

func (s *LogSink) Close() error { return nil }

// MultiSink fans a single stream of events out to multiple sinks,
// routing by the "target" metadata pattern.Target attaches to a Hap's
// context; events with no target go to every registered default sink.
type MultiSink struct {
	byTarget map[string]Sink
	defaults []Sink
}

// NewMultiSink builds an empty fan-out; add sinks with Route/AddDefault.
func NewMultiSink() *MultiSink {
	return &MultiSink{byTarget: map[string]Sink{}}
}

// Route directs every Hap whose "target" metadata equals name to s.
func (m *MultiSink) Route(name string, s Sink) {
	m.byTarget[name] = s
}

// AddDefault registers a sink that receives every event with no target
// metadata set. An event with a target goes only to the sink routed for
// that target, or nowhere if none is.
func (m *MultiSink) AddDefault(s Sink) {
	m.defaults = append(m.defaults, s)
}

func (m *MultiSink) Emit(t time.Time, val value.V, duration time.Duration, ctx hap.Context) {
	if target, ok := ctx.Metadata["target"]; ok {
		if s, ok := m.byTarget[target.AsString()]; ok {
			s.Emit(t, val, duration, ctx)
		}
		return
	}
	for _, s := range m.defaults {
		s.Emit(t, val, duration, ctx)
	}
}

func (m *MultiSink) Flush(cutoff time.Time) {
	for _, s := range m.byTarget {
		s.Flush(cutoff)
	}
	for _, s := range m.defaults {
		s.Flush(cutoff)
	}
}

func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.byTarget {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range m.defaults {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
