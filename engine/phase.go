package engine

import "math"

// RunState is the phase engine's state machine position
type RunState int

const (
	Stopped RunState = iota
	RunningFree
	RunningSynced
)

func (s RunState) String() string {
	switch s {
	case RunningFree:
		return "free"
	case RunningSynced:
		return "synced"
	}
	return "stopped"
}

// PhaseEngine advances one oscillator's phase, either free-running on wall
// clock time or slaved to recovered MIDI clock ticks. It is not internally
// locked: the owning Engine serializes all calls under its own mutex.
type PhaseEngine struct {
	cfg     OscillatorConfig
	enabled bool
	state   RunState
	phase   float64
	done    bool    // one-shot ran to completion, holding
	fadePos float64 // seconds (free) or cycles (synced) since last trigger

	// transport bookkeeping against clock snapshots
	seeded        bool
	lastTicks     int64
	lastStarts    uint64
	lastContinues uint64
}

// NewPhaseEngine creates a stopped engine with the given config
func NewPhaseEngine(cfg OscillatorConfig) *PhaseEngine {
	return &PhaseEngine{cfg: cfg, phase: wrap01(cfg.PhaseOffset)}
}

// SetConfig swaps the parameter set without disturbing the current phase
func (p *PhaseEngine) SetConfig(cfg OscillatorConfig) {
	p.cfg = cfg
}

// Config returns the current parameter set
func (p *PhaseEngine) Config() OscillatorConfig { return p.cfg }

// Enable arms the engine; the actual run state follows the speed mode and,
// in synced mode, the transport
func (p *PhaseEngine) Enable() {
	p.enabled = true
	p.retrigger()
}

// Disable stops the engine before the next Step
func (p *PhaseEngine) Disable() {
	p.enabled = false
	p.state = Stopped
}

// Enabled reports whether the engine is armed
func (p *PhaseEngine) Enabled() bool { return p.enabled }

// State returns the state machine position after the last Step
func (p *PhaseEngine) State() RunState { return p.state }

// Phase returns the current phase in [0, 1] (1.0 only while a one-shot holds)
func (p *PhaseEngine) Phase() float64 { return p.phase }

// FadeGain returns the fade-in envelope applied to depth, in [0, 1]
func (p *PhaseEngine) FadeGain() float64 {
	if p.cfg.FadeIn <= 0 {
		return 1
	}
	return math.Min(1, p.fadePos/p.cfg.FadeIn)
}

func (p *PhaseEngine) retrigger() {
	p.phase = wrap01(p.cfg.PhaseOffset)
	p.done = false
	p.fadePos = 0
}

// Step advances the engine by one scheduler invocation: dt of wall clock time
// plus whatever the clock snapshot says happened since the last call. Returns
// the number of cycle boundaries crossed (sample-and-hold targets to roll).
func (p *PhaseEngine) Step(clock ClockState, dt float64) int {
	if !p.seeded {
		p.lastTicks = clock.Ticks
		p.lastStarts = clock.Starts
		p.lastContinues = clock.Continues
		p.seeded = true
	}

	// consume transport events
	started := clock.Starts > p.lastStarts
	resumed := clock.Continues > p.lastContinues
	p.lastStarts = clock.Starts
	p.lastContinues = clock.Continues

	// consume clock ticks; a start resets the host's counter
	tickDelta := clock.Ticks - p.lastTicks
	if tickDelta < 0 {
		tickDelta = clock.Ticks
	}
	p.lastTicks = clock.Ticks

	if !p.enabled {
		p.state = Stopped
		return 0
	}

	wraps := 0
	switch p.cfg.Trigger {
	case TriggerOneShot:
		// one cycle per retrigger, on either start or continue
		if started || resumed {
			p.retrigger()
			wraps++
		}
	case TriggerSync:
		// phase realigns on start only; continue resumes in place
		if started {
			p.retrigger()
			wraps++
		}
	}

	switch p.cfg.Mode {
	case SpeedSynced:
		if !clock.Running {
			// sync mode never falls back to free running
			p.state = Stopped
			return wraps
		}
		p.state = RunningSynced
		inc := p.cfg.TickIncrement()
		wraps += p.advance(inc * float64(tickDelta))
		p.fadePos += inc * float64(tickDelta) // fade measured in cycles
	default:
		p.state = RunningFree
		wraps += p.advance(p.cfg.RateHz * dt)
		p.fadePos += dt // fade measured in seconds
	}
	return wraps
}

// advance moves the phase forward by delta, honoring the one-shot hold
func (p *PhaseEngine) advance(delta float64) int {
	if delta <= 0 || p.done {
		return 0
	}
	if p.cfg.Trigger == TriggerOneShot {
		p.phase += delta
		if p.phase >= 1 {
			p.phase = 1 // hold at the end of the cycle until retriggered
			p.done = true
		}
		return 0
	}
	p.phase += delta
	wraps := int(math.Floor(p.phase))
	if wraps > 0 {
		p.phase -= float64(wraps)
	}
	return wraps
}

func wrap01(v float64) float64 {
	v -= math.Floor(v)
	return v
}
