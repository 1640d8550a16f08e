package sink

import (
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/chase3718/strudel-go/pkg/hap"
	"github.com/chase3718/strudel-go/pkg/value"
)

// Wire protocol constants: a checksummed frame layout
// ([SOF0][SOF1][LEN][CMD]payload[CKS]) carrying a single pattern event.
const (
	serialSOF0       = 0xAA
	serialSOF1       = 0x55
	cmdApplyNoteOn   = 0x20
	cmdApplyNoteOff  = 0x21
	cmdApplyControl  = 0x22
	serialPayloadLen = 5
)

// eventFrame is a single note/control event sent to an external
// actuator (lighting rig, sequencer, eurorack interface) over serial.
type eventFrame struct {
	cmd      byte
	note     byte
	velocity byte
	channel  byte
	seq      byte
}

// Encode builds the on-wire representation:
//
//	[SOF0][SOF1][LEN][CMD][note][velocity][channel][seq][CKS]
func (f eventFrame) Encode() []byte {
	payload := []byte{f.note, f.velocity, f.channel, f.seq}
	length := byte(len(payload) + 1) // +1 for CMD byte
	cks := length ^ f.cmd
	for _, b := range payload {
		cks ^= b
	}
	out := make([]byte, 0, 3+serialPayloadLen+1)
	out = append(out, serialSOF0, serialSOF1, length, f.cmd)
	out = append(out, payload...)
	out = append(out, cks)
	return out
}

// SerialSink streams scheduled Haps to an actuator over a serial
// connection using a checksummed frame protocol.
type SerialSink struct {
	mu     sync.Mutex
	port   serial.Port
	logger *slog.Logger
	seq    byte
	timers []*time.Timer
}

// OpenSerialSink opens name at baud and wraps it as a SerialSink.
func OpenSerialSink(name string, baud int, logger *slog.Logger) (*SerialSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	logger.Info("serial: port opened", "device", name, "baud", baud)
	return &SerialSink{port: p, logger: logger}, nil
}

func (s *SerialSink) Emit(t time.Time, val value.V, duration time.Duration, ctx hap.Context) {
	m := val.AsMap()
	channel := byte(0)
	if c, ok := m["channel"]; ok {
		if f, ok := c.AsNumber(); ok {
			channel = byte(f)
		}
	}
	if ccn, ok := m["ccn"]; ok {
		ccv := m["ccv"]
		s.sendControlAt(t, byte(mustNumber(ccn)), byte(mustNumber(ccv)), channel)
		return
	}
	note, vel, ok := noteAndVelocity(val)
	if !ok {
		return
	}
	delay := time.Until(t)
	timer := time.AfterFunc(delay, func() {
		s.send(eventFrame{cmd: cmdApplyNoteOn, note: note, velocity: vel, channel: channel, seq: s.nextSeq()})
		s.mu.Lock()
		off := time.AfterFunc(duration, func() {
			s.send(eventFrame{cmd: cmdApplyNoteOff, note: note, channel: channel, seq: s.nextSeq()})
		})
		s.timers = append(s.timers, off)
		s.mu.Unlock()
	})
	s.mu.Lock()
	s.timers = append(s.timers, timer)
	s.mu.Unlock()
}

// sendControlAt fires a cmdApplyControl frame (controller number as
// note, value as velocity) at t, for a Hap carrying ccn/ccv keys
// instead of a note.
func (s *SerialSink) sendControlAt(t time.Time, ccn, ccv, channel byte) {
	delay := time.Until(t)
	timer := time.AfterFunc(delay, func() {
		s.send(eventFrame{cmd: cmdApplyControl, note: ccn, velocity: ccv, channel: channel, seq: s.nextSeq()})
	})
	s.mu.Lock()
	s.timers = append(s.timers, timer)
	s.mu.Unlock()
}

func mustNumber(v value.V) float64 {
	n, _ := v.AsNumber()
	return n
}

func (s *SerialSink) nextSeq() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *SerialSink) send(f eventFrame) {
	data := f.Encode()
	n, err := s.port.Write(data)
	if err != nil {
		s.logger.Error("serial: write error", "err", err)
		return
	}
	s.logger.Debug("serial: frame sent", "bytes", n, "seq", f.seq, "cmd", f.cmd)
}

func (s *SerialSink) Flush(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

func (s *SerialSink) Close() error {
	s.Flush(time.Time{})
	s.logger.Info("serial: closing port")
	return s.port.Close()
}
