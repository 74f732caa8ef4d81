package engine

import (
	"sync"
	"time"

	"go-modulate/debug"
)

// MIDI clock runs at 24 pulses per quarter note
const PPQN = 24

// Tempo estimates outside this band are treated as transport glitches
const (
	MinTempo = 20.0
	MaxTempo = 300.0
)

// ClockEventType enumerates the MIDI realtime messages we care about
type ClockEventType int

const (
	ClockTick ClockEventType = iota
	ClockStart
	ClockStop
	ClockContinue
)

// ClockEvent is a timestamped realtime message from the transport collaborator
type ClockEvent struct {
	Type ClockEventType
	At   time.Time
}

// ClockState is a consistent snapshot of the recovered clock
type ClockState struct {
	Running    bool
	Tempo      float64 // BPM, only meaningful when TempoKnown
	TempoKnown bool
	Ticks      int64 // ticks since last start
	LastTick   time.Time
	Starts     uint64 // transport start count since reset
	Continues  uint64 // transport continue count since reset
	Glitches   uint64 // discarded out-of-band intervals
}

// ClockRecovery turns a stream of timestamped MIDI realtime events into a
// smoothed tempo estimate and a transport run state. Single writer (Ingest),
// any number of snapshot readers.
type ClockRecovery struct {
	mu         sync.Mutex
	running    bool
	tempo      float64
	tempoKnown bool
	ticks      int64
	lastTick   time.Time
	haveLast   bool
	starts     uint64
	continues  uint64
	glitches   uint64

	alpha   float64
	timeout time.Duration
}

// Smoothing favors stability over responsiveness
const defaultAlpha = 0.15

// No ticks for this long means the device went silent
const defaultTimeout = 2 * time.Second

// NewClockRecovery creates a clock recovery unit with default smoothing
func NewClockRecovery() *ClockRecovery {
	return &ClockRecovery{
		alpha:   defaultAlpha,
		timeout: defaultTimeout,
	}
}

// Ingest consumes one realtime event. Never blocks.
func (c *ClockRecovery) Ingest(ev ClockEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case ClockStart:
		c.ticks = 0
		c.running = true
		c.starts++
		// tempo estimate survives transport restarts
	case ClockContinue:
		c.running = true
		c.continues++
	case ClockStop:
		c.running = false
	case ClockTick:
		c.ingestTick(ev.At)
	}
}

func (c *ClockRecovery) ingestTick(at time.Time) {
	if c.haveLast {
		dt := at.Sub(c.lastTick)
		if dt > c.timeout {
			// device went silent mid-stream; re-arm the estimator so the
			// tempo reports unknown until two fresh ticks arrive
			c.tempoKnown = false
			c.running = false
		} else if dt > 0 {
			bpm := 60.0 / (dt.Seconds() * PPQN)
			if bpm < MinTempo || bpm > MaxTempo {
				c.glitches++
				debug.LogEvery(64, "clock", "glitch interval %v (%.1f bpm)", dt, bpm)
			} else if !c.tempoKnown {
				c.tempo = bpm
				c.tempoKnown = true
			} else {
				c.tempo += c.alpha * (bpm - c.tempo)
			}
		} else {
			c.glitches++
		}
	}
	if c.ticks < 1<<62 { // saturate, never wrap
		c.ticks++
	}
	c.lastTick = at
	c.haveLast = true
}

// State returns a snapshot as of now, applying the silence timeout
func (c *ClockRecovery) State(now time.Time) ClockState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := ClockState{
		Running:    c.running,
		Tempo:      c.tempo,
		TempoKnown: c.tempoKnown,
		Ticks:      c.ticks,
		LastTick:   c.lastTick,
		Starts:     c.starts,
		Continues:  c.continues,
		Glitches:   c.glitches,
	}
	if c.haveLast && now.Sub(c.lastTick) > c.timeout {
		s.Running = false
		s.TempoKnown = false
		s.Tempo = 0
		// degrade internal state too so a later tick restarts estimation
		c.running = false
		c.tempoKnown = false
	}
	return s
}

// Reset clears everything, as on device disconnect
func (c *ClockRecovery) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.tempo = 0
	c.tempoKnown = false
	c.ticks = 0
	c.haveLast = false
	c.starts = 0
	c.continues = 0
	c.glitches = 0
}
