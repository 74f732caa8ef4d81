package engine

import (
	"math"
	"testing"
)

func syncedConfig() OscillatorConfig {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedSynced
	cfg.RateMul = Rate{1, 1}
	cfg.BeatsPerCycle = 4
	return cfg
}

func TestSyncedFullCycleIn96Ticks(t *testing.T) {
	p := NewPhaseEngine(syncedConfig())
	p.Enable()

	// seed against an empty transport, then start
	p.Step(ClockState{}, 0)
	clock := ClockState{Running: true, Starts: 1}
	p.Step(clock, 0)

	// 4 beats x 24 ppqn = 96 ticks = exactly one cycle
	clock.Ticks = 96
	wraps := p.Step(clock, 0)

	if wraps != 1 {
		t.Errorf("wraps: got %d, want 1", wraps)
	}
	if math.Abs(p.Phase()) > 1e-9 {
		t.Errorf("phase after full cycle: got %f, want 0", p.Phase())
	}
	if p.State() != RunningSynced {
		t.Errorf("state: got %v, want running-synced", p.State())
	}
}

func TestSyncedHalfCycle(t *testing.T) {
	p := NewPhaseEngine(syncedConfig())
	p.Enable()
	p.Step(ClockState{}, 0)
	p.Step(ClockState{Running: true, Starts: 1}, 0)

	p.Step(ClockState{Running: true, Starts: 1, Ticks: 48}, 0)
	if math.Abs(p.Phase()-0.5) > 1e-9 {
		t.Errorf("phase after 48 ticks: got %f, want 0.5", p.Phase())
	}
}

func TestSyncedRateMultiplier(t *testing.T) {
	cfg := syncedConfig()
	cfg.RateMul = Rate{2, 1} // double speed: one cycle per 48 ticks
	p := NewPhaseEngine(cfg)
	p.Enable()
	p.Step(ClockState{}, 0)
	p.Step(ClockState{Running: true, Starts: 1}, 0)

	wraps := p.Step(ClockState{Running: true, Starts: 1, Ticks: 96}, 0)
	if wraps != 2 {
		t.Errorf("wraps at 2x over 96 ticks: got %d, want 2", wraps)
	}
}

func TestTransportStopHaltsSyncedPhase(t *testing.T) {
	p := NewPhaseEngine(syncedConfig())
	p.Enable()
	p.Step(ClockState{}, 0)
	p.Step(ClockState{Running: true, Starts: 1, Ticks: 24}, 0)
	at := p.Phase()

	// stop, then stray ticks keep arriving
	p.Step(ClockState{Running: false, Starts: 1, Ticks: 30}, 0)
	p.Step(ClockState{Running: false, Starts: 1, Ticks: 48}, 0)

	if p.Phase() != at {
		t.Errorf("phase advanced while stopped: %f -> %f", at, p.Phase())
	}
	if p.State() != Stopped {
		// sync mode must not fall back to free running
		t.Errorf("state after transport stop: got %v, want stopped", p.State())
	}
}

func TestStoppedTicksDoNotReplayOnContinue(t *testing.T) {
	p := NewPhaseEngine(syncedConfig())
	p.Enable()
	p.Step(ClockState{}, 0)
	p.Step(ClockState{Running: true, Starts: 1, Ticks: 24}, 0)
	at := p.Phase()

	// 24 stray ticks while stopped, then continue
	p.Step(ClockState{Running: false, Starts: 1, Ticks: 48}, 0)
	p.Step(ClockState{Running: true, Starts: 1, Continues: 1, Ticks: 48}, 0)

	if p.Phase() != at {
		t.Errorf("stray ticks applied across stop: %f -> %f", at, p.Phase())
	}
}

func TestFreeRunAdvancesAndWraps(t *testing.T) {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedFree
	cfg.RateHz = 2
	p := NewPhaseEngine(cfg)
	p.Enable()

	wraps := p.Step(ClockState{}, 0.25) // 2Hz * 0.25s = half cycle
	if wraps != 0 || math.Abs(p.Phase()-0.5) > 1e-9 {
		t.Errorf("free advance: wraps=%d phase=%f, want 0/0.5", wraps, p.Phase())
	}

	wraps = p.Step(ClockState{}, 0.75) // 1.5 cycles further
	if wraps != 2 {
		t.Errorf("free wrap count: got %d, want 2", wraps)
	}
	if p.Phase() < 0 || p.Phase() >= 1 {
		t.Errorf("phase out of range: %f", p.Phase())
	}
}

func TestFreeModeIgnoresTransport(t *testing.T) {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedFree
	cfg.Trigger = TriggerFree
	cfg.RateHz = 1
	p := NewPhaseEngine(cfg)
	p.Enable()

	p.Step(ClockState{Running: false}, 0.1)
	if p.State() != RunningFree {
		t.Errorf("free mode should run without a transport, got %v", p.State())
	}
	before := p.Phase()
	p.Step(ClockState{Running: false, Starts: 1}, 0.1) // start arrives
	if p.Phase() <= before {
		t.Error("free-running trigger should ignore transport start")
	}
}

func TestOneShotHoldsAtEnd(t *testing.T) {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedFree
	cfg.RateHz = 1
	cfg.Trigger = TriggerOneShot
	p := NewPhaseEngine(cfg)
	p.Enable()

	p.Step(ClockState{}, 1.5)
	if p.Phase() != 1 {
		t.Fatalf("one-shot should hold at 1.0, got %f", p.Phase())
	}
	p.Step(ClockState{}, 1.0)
	if p.Phase() != 1 {
		t.Errorf("one-shot wrapped past 1.0: %f", p.Phase())
	}
}

func TestOneShotRetriggersOnStartAndContinue(t *testing.T) {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedFree
	cfg.RateHz = 1
	cfg.Trigger = TriggerOneShot
	cfg.PhaseOffset = 0.25
	p := NewPhaseEngine(cfg)
	p.Enable()
	p.Step(ClockState{}, 0) // seed

	p.Step(ClockState{}, 2.0)
	if p.Phase() != 1 {
		t.Fatalf("one-shot not held: %f", p.Phase())
	}

	p.Step(ClockState{Running: true, Starts: 1}, 0)
	if math.Abs(p.Phase()-0.25) > 1e-9 {
		t.Errorf("start retrigger: phase %f, want offset 0.25", p.Phase())
	}

	p.Step(ClockState{Running: true, Starts: 1}, 2.0) // run to completion again
	p.Step(ClockState{Running: true, Starts: 1, Continues: 1}, 0)
	if math.Abs(p.Phase()-0.25) > 1e-9 {
		t.Errorf("continue retrigger: phase %f, want offset 0.25", p.Phase())
	}
}

func TestKeySyncResetsOnStartNotContinue(t *testing.T) {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedFree
	cfg.RateHz = 1
	cfg.Trigger = TriggerSync
	p := NewPhaseEngine(cfg)
	p.Enable()
	p.Step(ClockState{}, 0)

	p.Step(ClockState{}, 0.4)
	p.Step(ClockState{Running: true, Starts: 1}, 0)
	if math.Abs(p.Phase()) > 1e-9 {
		t.Errorf("key-sync should reset phase on start, got %f", p.Phase())
	}

	p.Step(ClockState{Running: true, Starts: 1}, 0.4)
	at := p.Phase()
	p.Step(ClockState{Running: true, Starts: 1, Continues: 1}, 0)
	if p.Phase() != at {
		t.Errorf("key-sync must not reset phase on continue: %f -> %f", at, p.Phase())
	}
}

func TestDisableStopsBeforeNextStep(t *testing.T) {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedFree
	cfg.RateHz = 1
	p := NewPhaseEngine(cfg)
	p.Enable()
	p.Step(ClockState{}, 0.25)
	at := p.Phase()

	p.Disable()
	p.Step(ClockState{}, 0.25)
	if p.Phase() != at {
		t.Errorf("phase advanced after disable: %f -> %f", at, p.Phase())
	}
	if p.State() != Stopped {
		t.Errorf("state after disable: %v", p.State())
	}
}

func TestFadeInGain(t *testing.T) {
	cfg := DefaultOscillatorConfig()
	cfg.Mode = SpeedFree
	cfg.RateHz = 1
	cfg.FadeIn = 2.0 // seconds in free mode
	p := NewPhaseEngine(cfg)
	p.Enable()

	if g := p.FadeGain(); g != 0 {
		t.Errorf("fade gain at t=0: %f", g)
	}
	p.Step(ClockState{}, 1.0)
	if g := p.FadeGain(); math.Abs(g-0.5) > 1e-9 {
		t.Errorf("fade gain at t=1: got %f, want 0.5", g)
	}
	p.Step(ClockState{}, 2.0)
	if g := p.FadeGain(); g != 1 {
		t.Errorf("fade gain past duration: got %f, want 1", g)
	}
}

func TestFadeInCountsCyclesWhenSynced(t *testing.T) {
	cfg := syncedConfig()
	cfg.FadeIn = 2.0 // cycles in synced mode
	p := NewPhaseEngine(cfg)
	p.Enable()
	p.Step(ClockState{}, 0)
	p.Step(ClockState{Running: true, Starts: 1}, 0)

	// one full cycle = half the fade
	p.Step(ClockState{Running: true, Starts: 1, Ticks: 96}, 0)
	if g := p.FadeGain(); math.Abs(g-0.5) > 1e-9 {
		t.Errorf("fade gain after one cycle: got %f, want 0.5", g)
	}
}
