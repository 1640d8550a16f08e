package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chase3718/strudel-go/internal/config"
	"github.com/chase3718/strudel-go/internal/session"
	"github.com/chase3718/strudel-go/pkg/clock"
	"github.com/chase3718/strudel-go/pkg/diag"
	"github.com/chase3718/strudel-go/pkg/rational"
	"github.com/chase3718/strudel-go/pkg/scheduler"
	"github.com/chase3718/strudel-go/pkg/sink"
)

// buildSink opens the output collaborator named by cfg.Sink, falling
// back to a LogSink (and a warning) if a hardware sink can't be opened
// — a live-coding session should keep playing to the console rather
// than fail outright because a MIDI cable is unplugged.
func buildSink(cfg config.Config) sink.Sink {
	switch cfg.Sink {
	case "midi":
		s, err := sink.OpenMIDISink(cfg.MIDIDevice, uint8(cfg.MIDIChannel), logger)
		if err != nil {
			logger.Warn("midi sink unavailable, falling back to log sink", "err", err)
			return sink.NewLogSink(logger)
		}
		return s
	case "serial":
		s, err := sink.OpenSerialSink(cfg.SerialDevice, cfg.SerialBaud, logger)
		if err != nil {
			logger.Warn("serial sink unavailable, falling back to log sink", "err", err)
			return sink.NewLogSink(logger)
		}
		return s
	default:
		return sink.NewLogSink(logger)
	}
}

// buildScheduler wires a Scheduler against a fresh SystemClock, cfg's
// chosen sink, and a diagnostic channel drained into the session store.
func buildScheduler(cfg config.Config, store *session.Store) (*scheduler.Scheduler, diag.Sink) {
	diags := diag.NewSink(64)
	c := clock.NewSystemClock()
	s := buildSink(cfg)
	lookAhead := time.Duration(cfg.LookAheadMS) * time.Millisecond
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	sched := scheduler.New(c, s, diags, lookAhead, interval)
	sched.SetCPS(rational.FromFloat(cfg.CPS))
	if store != nil {
		go drainDiagsLoop(store, diags)
	}
	return sched, diags
}

// drainDiagsLoop persists every diagnostic the scheduler reports until
// the channel is closed; cmd_play and cmd_watch both run this as a
// background goroutine for the lifetime of a session.
func drainDiagsLoop(store *session.Store, diags diag.Sink) {
	for d := range diags {
		if err := store.RecordDiagnostic(d); err != nil {
			logger.Warn("session: failed to record diagnostic", "err", err)
		}
	}
}

// openSession opens (or creates) the session store at cfg.SessionDB,
// logging but not failing hard if it can't be opened — session history
// is a convenience, not a dependency of playback.
func openSession(cfg config.Config) *session.Store {
	store, err := session.Open(cfg.SessionDB)
	if err != nil {
		logger.Warn("session: could not open store, history will not be recorded", "err", err)
		return nil
	}
	return store
}

// waitForInterrupt blocks until SIGINT/SIGTERM, then returns so the
// caller can shut down cleanly.
func waitForInterrupt() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	fmt.Fprintln(os.Stderr)
	logger.Info("shutting down")
}
