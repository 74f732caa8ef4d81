package engine

import "fmt"

// SpeedMode selects the oscillator timebase
type SpeedMode string

const (
	SpeedFree   SpeedMode = "free" // rate in Hz, wall clock
	SpeedSynced SpeedMode = "sync" // musical rate, MIDI clock ticks
)

// TriggerMode controls how the oscillator reacts to the transport
type TriggerMode string

const (
	TriggerFree    TriggerMode = "free"     // ignores transport once engaged
	TriggerOneShot TriggerMode = "one-shot" // one cycle per retrigger, then hold
	TriggerSync    TriggerMode = "key-sync" // phase reset on transport start
)

// Rate is a musical rate multiplier relative to the beat (1/4, 1, 2, ...)
type Rate struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// Value returns the multiplier as a float, 1.0 for a zero value
func (r Rate) Value() float64 {
	if r.Num == 0 || r.Den == 0 {
		return 1
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rate) String() string {
	if r.Den == 1 || r.Den == 0 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// MulRates lists the selectable musical rates, slow to fast
var MulRates = []Rate{
	{1, 8}, {1, 4}, {1, 2}, {1, 1}, {2, 1}, {4, 1}, {8, 1},
}

// OscillatorConfig is the full parameter set of one oscillator. It is a plain
// value: presets store copies, never aliases of the live config.
type OscillatorConfig struct {
	Shape         Shape       `json:"shape"`
	Mode          SpeedMode   `json:"mode"`
	RateHz        float64     `json:"rateHz"`        // free mode
	RateMul       Rate        `json:"rateMul"`       // synced mode
	BeatsPerCycle int         `json:"beatsPerCycle"` // cycle length at RateMul 1
	Trigger       TriggerMode `json:"trigger"`
	Depth         float64     `json:"depth"`       // 0..100 %
	FadeIn        float64     `json:"fadeIn"`      // seconds (free) or cycles (synced)
	PhaseOffset   float64     `json:"phaseOffset"` // 0..1, applied on reset
}

// DefaultOscillatorConfig returns a sensible starting point
func DefaultOscillatorConfig() OscillatorConfig {
	return OscillatorConfig{
		Shape:         ShapeSine,
		Mode:          SpeedFree,
		RateHz:        1.0,
		RateMul:       Rate{1, 1},
		BeatsPerCycle: 4,
		Trigger:       TriggerFree,
		Depth:         50,
		FadeIn:        0,
		PhaseOffset:   0,
	}
}

// TickIncrement returns the phase advance per incoming MIDI clock tick in
// synced mode. A full cycle spans BeatsPerCycle beats at RateMul 1, so the
// cycle aligns musically regardless of the host's absolute tempo.
func (c OscillatorConfig) TickIncrement() float64 {
	bpc := c.BeatsPerCycle
	if bpc <= 0 {
		bpc = 4
	}
	return c.RateMul.Value() / (PPQN * float64(bpc))
}
