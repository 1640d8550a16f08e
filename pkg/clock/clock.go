// Package clock supplies the scheduler's notion of wall-clock time,
// decoupled from any particular timer source so tests can substitute a
// deterministic implementation.
package clock

import "time"

// Clock gives the scheduler a monotonic notion of "now" plus a fixed
// epoch so that pattern cycle 0 always starts at the same instant.
type Clock interface {
	Now() time.Time
	Epoch() time.Time
}

// SystemClock is the default Clock, backed by time.Now. Epoch is fixed
// at construction time.
type SystemClock struct {
	epoch time.Time
}

// NewSystemClock builds a SystemClock whose epoch is the moment of
// construction.
func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now()}
}

// NewSystemClockAt builds a SystemClock with an explicit epoch, used by
// hosts that need cycle 0 to line up with some externally-chosen
// instant (e.g. resuming a session).
func NewSystemClockAt(epoch time.Time) *SystemClock {
	return &SystemClock{epoch: epoch}
}

func (c *SystemClock) Now() time.Time   { return time.Now() }
func (c *SystemClock) Epoch() time.Time { return c.epoch }
