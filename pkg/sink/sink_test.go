package sink

import (
	"errors"
	"testing"
	"time"

	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/value"
)

type stubSink struct {
	emitted []value.V
	flushed []time.Time
	closeFn func() error
}

func (s *stubSink) Emit(t time.Time, val value.V, duration time.Duration, ctx hap.Context) {
	s.emitted = append(s.emitted, val)
}

func (s *stubSink) Flush(cutoff time.Time) {
	s.flushed = append(s.flushed, cutoff)
}

func (s *stubSink) Close() error {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

func TestMultiSinkRoutesByTarget(t *testing.T) {
	m := NewMultiSink()
	synth := &stubSink{}
	midi := &stubSink{}
	m.Route("midi", midi)
	m.AddDefault(synth)

	ctx := hap.Context{Metadata: map[string]value.V{"target": value.String("midi")}}
	m.Emit(time.Now(), value.String("bd"), 0, ctx)

	if len(midi.emitted) != 1 {
		t.Fatalf("midi sink received %d events, want 1", len(midi.emitted))
	}
	if len(synth.emitted) != 0 {
		t.Fatalf("default sink should not receive a targeted event, got %d", len(synth.emitted))
	}
}

func TestMultiSinkFallsBackToDefaultsWithoutTarget(t *testing.T) {
	m := NewMultiSink()
	synth := &stubSink{}
	m.AddDefault(synth)

	m.Emit(time.Now(), value.String("bd"), 0, hap.Context{})
	if len(synth.emitted) != 1 {
		t.Fatalf("default sink received %d events, want 1", len(synth.emitted))
	}
}

func TestMultiSinkUnknownTargetSkipsDefaults(t *testing.T) {
	m := NewMultiSink()
	synth := &stubSink{}
	m.AddDefault(synth)

	ctx := hap.Context{Metadata: map[string]value.V{"target": value.String("nope")}}
	m.Emit(time.Now(), value.String("bd"), 0, ctx)
	if len(synth.emitted) != 0 {
		t.Fatalf("an event with an unroutable target should not fall through to defaults, got %d", len(synth.emitted))
	}
}

func TestMultiSinkFlushReachesEverySink(t *testing.T) {
	m := NewMultiSink()
	a := &stubSink{}
	b := &stubSink{}
	m.Route("a", a)
	m.AddDefault(b)

	cutoff := time.Now()
	m.Flush(cutoff)
	if len(a.flushed) != 1 || len(b.flushed) != 1 {
		t.Fatalf("Flush should reach every registered sink, got a=%d b=%d", len(a.flushed), len(b.flushed))
	}
}

func TestMultiSinkCloseReturnsFirstError(t *testing.T) {
	m := NewMultiSink()
	boom := errors.New("boom")
	m.AddDefault(&stubSink{closeFn: func() error { return boom }})
	m.AddDefault(&stubSink{})

	if err := m.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close() = %v, want %v", err, boom)
	}
}

func TestLogSinkDoesNotPanicOnNilLogger(t *testing.T) {
	s := NewLogSink(nil)
	s.Emit(time.Now(), value.String("bd"), time.Millisecond, hap.Context{})
	s.Flush(time.Now())
	if err := s.Close(); err != nil {
		t.Fatalf("LogSink.Close() = %v, want nil", err)
	}
}
