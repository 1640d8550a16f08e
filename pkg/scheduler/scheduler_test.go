package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/chase3718/strudel-go/pkg/diag"
	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/pattern"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/tspan"
	"github.com/chase3718/strudel-go/pkg/value"
)

// fakeClock gives the scheduler a fully controllable notion of "now",
// advanced explicitly by tests rather than by wall-clock time.
type fakeClock struct {
	now   time.Time
	epoch time.Time
}

func newFakeClock() *fakeClock {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fakeClock{now: t, epoch: t}
}

func (c *fakeClock) Now() time.Time   { return c.now }
func (c *fakeClock) Epoch() time.Time { return c.epoch }

// recordingSink captures every emitted event instead of dispatching it
// anywhere, so tests can assert on exactly what the scheduler decided to
// fire.
type recordingSink struct {
	mu     sync.Mutex
	values []string
	closed bool
}

func (s *recordingSink) Emit(t time.Time, val value.V, duration time.Duration, ctx hap.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, val.AsString())
}

func (s *recordingSink) Flush(cutoff time.Time) {}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

func newTestScheduler() (*Scheduler, *fakeClock, *recordingSink, diag.Sink) {
	c := newFakeClock()
	s := &recordingSink{}
	d := diag.NewSink(16)
	sched := New(c, s, d, 200*time.Millisecond, 20*time.Millisecond)
	return sched, c, s, d
}

func TestTickDoesNothingUntilPlayed(t *testing.T) {
	sched, c, s, _ := newTestScheduler()
	sched.Tick(c.now)
	if len(s.snapshot()) != 0 {
		t.Fatal("no pattern has been played, expected no emitted events")
	}
	if sched.IsRunning() {
		t.Fatal("scheduler should not be running before Play")
	}
}

func TestPlayStartsEmittingOnsets(t *testing.T) {
	sched, c, s, _ := newTestScheduler()
	sched.SetCPS(rational.One)
	sched.Play(Fastcat2(value.String("bd"), value.String("sn")))
	sched.Tick(c.now)
	if !sched.IsRunning() {
		t.Fatal("scheduler should be running after Play")
	}
	if got := s.snapshot(); len(got) == 0 {
		t.Fatal("expected at least one emitted event within the look-ahead window")
	}
}

func TestStopSilencesImmediately(t *testing.T) {
	sched, c, s, _ := newTestScheduler()
	sched.SetCPS(rational.One)
	sched.Play(Fastcat2(value.String("bd"), value.String("sn")))
	sched.Tick(c.now)
	before := len(s.snapshot())
	if before == 0 {
		t.Fatal("expected some events before Stop")
	}
	sched.Stop()
	sched.Tick(c.now)
	if sched.IsRunning() {
		t.Fatal("scheduler should not be running after Stop")
	}
	c.now = c.now.Add(time.Second)
	sched.Tick(c.now)
	if got := len(s.snapshot()); got != before {
		t.Fatalf("no new events should be emitted after Stop, got %d new", got-before)
	}
}

func TestSetCPSChangesTempoWithoutRetroactiveShift(t *testing.T) {
	sched, c, _, _ := newTestScheduler()
	sched.SetCPS(rational.One)
	if got := sched.CPS(); !got.Equal(rational.One) {
		t.Fatalf("CPS() = %v, want 1", got)
	}
	sched.Play(pattern.Pure(value.Number(1)))
	sched.Tick(c.now)
	sched.SetCPS(rational.New(2, 1))
	sched.Tick(c.now)
	if got := sched.CPS(); !got.Equal(rational.New(2, 1)) {
		t.Fatalf("CPS() after SetCPS(2) = %v, want 2", got)
	}
}

func TestPanicInQueryIsRecoveredAndReported(t *testing.T) {
	sched, c, s, diags := newTestScheduler()
	sched.SetCPS(rational.One)
	panicky := pattern.New(func(tspan.Span) []hap.H {
		panic("boom")
	})
	sched.Play(panicky)
	sched.Tick(c.now)

	select {
	case d := <-diags:
		if d.Kind != diag.TimingError {
			t.Fatalf("expected a TimingError diagnostic, got %v", d.Kind)
		}
	default:
		t.Fatal("expected a diagnostic to be reported after a panicking query")
	}
	if got := s.snapshot(); len(got) != 0 {
		t.Fatalf("a panicking pattern should emit nothing, got %d events", len(got))
	}
}

func TestPendingPatternSwapsAtCycleBoundary(t *testing.T) {
	sched, c, s, _ := newTestScheduler()
	sched.SetCPS(rational.One)
	sched.Play(pattern.Pure(value.String("a")))
	sched.Tick(c.now)
	sched.Play(pattern.Pure(value.String("b")))

	// Advance far enough that the look-ahead window crosses into cycles
	// where only "b" should be scheduled.
	c.now = c.now.Add(3 * time.Second)
	sched.Tick(c.now)

	got := s.snapshot()
	sawB := false
	for _, v := range got {
		if v == "b" {
			sawB = true
		}
	}
	if !sawB {
		t.Fatal("pending pattern should eventually take over after a cycle boundary")
	}
}

// Fastcat2 is a small test helper building a two-slot fastcat pattern of
// string values, avoiding an import cycle with pkg/pattern's own tests.
func Fastcat2(a, b value.V) pattern.Pattern {
	return pattern.Fastcat(pattern.Pure(a), pattern.Pure(b))
}
