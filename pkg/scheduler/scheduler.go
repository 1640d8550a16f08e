// Package scheduler implements the clock-driven main loop that turns a
// Pattern into wall-clock events: a small look-ahead window is queried
// on every tick, onsets within it are handed to a sink at their
// computed trigger time, and pattern swaps are deferred to the next
// cycle boundary so a live edit never cuts a cycle in half.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/chase3718/strudel-go/pkg/clock"
	"github.com/chase3718/strudel-go/pkg/diag"
	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/pattern"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/sink"
	"github.com/chase3718/strudel-go/pkg/tspan"
)

type cmdKind int

const (
	cmdPlay cmdKind = iota
	cmdStop
	cmdSetCPS
	cmdSeek
)

// schedulerCmd is one entry on the scheduler's command queue. Only the
// field relevant to Kind is meaningful.
type schedulerCmd struct {
	kind     cmdKind
	pattern  pattern.Pattern
	cps      rational.R
	cyclePos rational.R
}

// Scheduler drives a Pattern against wall-clock time. All mutation
// happens through Play/Stop/SetCPS/Seek, which enqueue a command rather
// than touching scheduler state directly; the commands channel is
// drained only inside Tick, so the scheduler's time-varying state
// (activePattern, cps, the origin time/cycle pair) never needs a lock:
// commands are only ever popped from the tick loop, single-goroutine.
type Scheduler struct {
	clock clock.Clock
	sink  sink.Sink
	diags diag.Sink

	lookAhead time.Duration
	interval  time.Duration

	commands chan schedulerCmd

	// originTime/originCycle are a matched pair: cycleAt/timeAt convert
	// between wall time and cycle position by walking from this origin
	// at the current cps, and setCPS/Seek rebase the pair so that a
	// tempo or position change never retroactively moves events already
	// scheduled.
	originTime  time.Time
	originCycle rational.R
	cps         rational.R

	activePattern   pattern.Pattern
	pendingPattern  *pattern.Pattern
	lastScheduledTo rational.R
	started         bool
	running         bool

	statusMu sync.RWMutex
}

// New builds a Scheduler. lookAhead is how far past "now" each tick
// queries; interval is how often the host is expected to call Tick (or
// Run's internal ticker uses it directly). A nil diags is fine;
// diagnostics are simply dropped.
func New(c clock.Clock, s sink.Sink, diags diag.Sink, lookAhead, interval time.Duration) *Scheduler {
	if lookAhead <= 0 {
		lookAhead = 100 * time.Millisecond
	}
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &Scheduler{
		clock:       c,
		sink:        s,
		diags:       diags,
		lookAhead:   lookAhead,
		interval:    interval,
		commands:    make(chan schedulerCmd, 32),
		originTime:  c.Now(),
		originCycle: rational.Zero,
		cps:         rational.One,
	}
}

func (s *Scheduler) enqueue(cmd schedulerCmd) {
	select {
	case s.commands <- cmd:
	default:
		s.reportDiag(diag.New(diag.TimingError, "command queue full, dropping command"))
	}
}

// Play schedules p to become the active pattern. If nothing is
// currently playing it takes effect on the very next tick; otherwise it
// becomes pending and swaps in cleanly at the next cycle boundary.
func (s *Scheduler) Play(p pattern.Pattern) {
	s.enqueue(schedulerCmd{kind: cmdPlay, pattern: p})
}

// Stop silences the scheduler immediately, dropping any pending swap.
func (s *Scheduler) Stop() {
	s.enqueue(schedulerCmd{kind: cmdStop})
}

// SetCPS changes the tempo, rebasing the origin so cycles already
// scheduled keep their wall-clock time.
func (s *Scheduler) SetCPS(cps rational.R) {
	s.enqueue(schedulerCmd{kind: cmdSetCPS, cps: cps})
}

// Seek jumps the current cycle position to cyclePos, taking effect on
// the next tick.
func (s *Scheduler) Seek(cyclePos rational.R) {
	s.enqueue(schedulerCmd{kind: cmdSeek, cyclePos: cyclePos})
}

// IsRunning reports whether the scheduler currently has an active
// pattern being scheduled.
func (s *Scheduler) IsRunning() bool {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.running
}

// CPS returns the current tempo in cycles per second.
func (s *Scheduler) CPS() rational.R {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.cps
}

func (s *Scheduler) setStatus(running bool, cps rational.R) {
	s.statusMu.Lock()
	s.running = running
	s.cps = cps
	s.statusMu.Unlock()
}

// cycleAt converts a wall-clock instant to a cycle position at the
// scheduler's current origin and tempo.
func (s *Scheduler) cycleAt(t time.Time) rational.R {
	seconds := t.Sub(s.originTime).Seconds()
	return s.originCycle.Add(rational.FromFloat(seconds * s.cps.Float()))
}

// timeAt converts a cycle position back to the wall-clock instant it
// falls at, the inverse of cycleAt.
func (s *Scheduler) timeAt(cycle rational.R) time.Time {
	delta := cycle.Sub(s.originCycle).Float()
	seconds := delta / s.cps.Float()
	return s.originTime.Add(time.Duration(seconds * float64(time.Second)))
}

// Tick runs one step of the main loop: drain pending commands, then
// query and emit everything due in the look-ahead window. It is safe
// to drive from an external time.Ticker, from Run (as cmd/strudel
// does), or to call directly from tests with a fixed now.
func (s *Scheduler) Tick(now time.Time) {
	s.drainCommands(now)
	if !s.running {
		return
	}
	begin := s.lastScheduledTo
	end := s.cycleAt(now.Add(s.lookAhead))
	if !end.Greater(begin) {
		return
	}
	s.scheduleWindow(begin, end)
	s.lastScheduledTo = end
}

func (s *Scheduler) drainCommands(now time.Time) {
	for {
		select {
		case cmd := <-s.commands:
			s.applyCommand(cmd, now)
		default:
			return
		}
	}
}

func (s *Scheduler) applyCommand(cmd schedulerCmd, now time.Time) {
	switch cmd.kind {
	case cmdPlay:
		if !s.started || !s.running {
			s.activePattern = cmd.pattern
			s.pendingPattern = nil
			s.started = true
			s.lastScheduledTo = s.cycleAt(now)
			s.setStatus(true, s.cps)
		} else {
			p := cmd.pattern
			s.pendingPattern = &p
		}
	case cmdStop:
		s.activePattern = pattern.Silence
		s.pendingPattern = nil
		s.sink.Flush(now)
		s.setStatus(false, s.cps)
	case cmdSetCPS:
		newOrigin := s.cycleAt(now)
		s.originTime = now
		s.originCycle = newOrigin
		s.cps = cmd.cps
		s.setStatus(s.running, cmd.cps)
	case cmdSeek:
		s.originCycle = cmd.cyclePos
		s.originTime = now
		s.lastScheduledTo = cmd.cyclePos
	}
}

// scheduleWindow queries [begin, end) against the active pattern,
// splitting at the first integer boundary to apply a pending pattern
// swap cleanly between cycles rather than mid-cycle.
func (s *Scheduler) scheduleWindow(begin, end rational.R) {
	if s.pendingPattern != nil {
		boundary := begin.Ceil()
		if boundary.GreaterEq(begin) && boundary.Less(end) {
			if boundary.Greater(begin) {
				s.queryAndEmit(s.activePattern, begin, boundary)
			}
			s.activePattern = *s.pendingPattern
			s.pendingPattern = nil
			s.queryAndEmit(s.activePattern, boundary, end)
			return
		}
	}
	s.queryAndEmit(s.activePattern, begin, end)
}

func (s *Scheduler) queryAndEmit(p pattern.Pattern, begin, end rational.R) {
	haps := s.safeQuery(p, tspan.New(begin, end))
	for _, h := range haps {
		if !h.HasOnset() {
			continue
		}
		whole := h.WholeOrPart()
		t := s.timeAt(whole.Begin)
		dur := s.durationOf(whole)
		s.sink.Emit(t, h.Value, dur, h.Context)
	}
}

func (s *Scheduler) durationOf(span tspan.Span) time.Duration {
	seconds := span.Duration().Float() / s.cps.Float()
	return time.Duration(seconds * float64(time.Second))
}

// safeQuery runs p.Query and recovers any panic, reporting a
// TimingError diagnostic rather than letting it escape the tick: a bad
// combinator or malformed host expression should never crash the whole
// schedule, just drop the one window it broke.
func (s *Scheduler) safeQuery(p pattern.Pattern, span tspan.Span) (haps []hap.H) {
	defer func() {
		if r := recover(); r != nil {
			haps = nil
			s.reportDiag(diag.New(diag.TimingError, fmt.Sprintf("pattern query panicked: %v", r)))
		}
	}()
	return p.Query(span)
}

func (s *Scheduler) reportDiag(d diag.Diagnostic) {
	if s.diags != nil {
		s.diags.Report(d)
	}
}

// Run drives Tick from an internal ticker until stop is closed.
func (s *Scheduler) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Tick(s.clock.Now())
		}
	}
}
