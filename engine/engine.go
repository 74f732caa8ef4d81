package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"go-modulate/debug"
)

// Scheduler cadence: 10ms steps keep CC output smooth without flooding
const stepInterval = 10 * time.Millisecond

// UI notify rate
const updateFPS = 30

// Outbound values are suppressed until they move at least half a CC step
const emitEpsilon = 0.5

// Emitter receives outbound parameter updates. It must not block.
type Emitter func(dest DestinationID, value float64)

type slot struct {
	id     string
	pe     *PhaseEngine
	hold   HoldState
	sample float64
}

// OscSnapshot is a read-only view of one oscillator slot
type OscSnapshot struct {
	ID       string
	Enabled  bool
	State    RunState
	Phase    float64
	Sample   float64
	FadeGain float64
	Config   OscillatorConfig
}

// Snapshot is a consistent pull-based view for the presentation layer
type Snapshot struct {
	Clock   ClockState
	Oscs    []OscSnapshot
	Outputs map[DestinationID]float64
	Emitted uint64
}

// Engine orchestrates clock recovery, phase advancement, waveform sampling
// and routing resolution. MIDI events arrive via Clock().Ingest from the
// transport goroutine; the scheduler loop runs in its own goroutine; the
// presentation layer polls Snapshot. All shared state sits behind one mutex
// and every step completes in bounded time.
type Engine struct {
	mu       sync.RWMutex
	clock    *ClockRecovery
	slots    []*slot
	routings map[DestinationID]Routing
	store    *Store
	rng      *rand.Rand
	emit     Emitter
	lastSent map[DestinationID]float64
	outputs  map[DestinationID]float64
	emitted  uint64

	stopChan chan struct{}

	// UpdateChan signals the TUI that state changed (non-blocking sends)
	UpdateChan chan struct{}
}

// NewEngine creates an engine with a single oscillator slot ("lfo1")
func NewEngine(emit Emitter) *Engine {
	e := &Engine{
		clock:      NewClockRecovery(),
		routings:   make(map[DestinationID]Routing),
		store:      NewStore(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		emit:       emit,
		lastSent:   make(map[DestinationID]float64),
		outputs:    make(map[DestinationID]float64),
		UpdateChan: make(chan struct{}, 1),
	}
	e.slots = append(e.slots, &slot{id: "lfo1", pe: NewPhaseEngine(DefaultOscillatorConfig())})
	return e
}

// SetSeed re-seeds the random generator (tests want reproducible holds)
func (e *Engine) SetSeed(seed int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng = rand.New(rand.NewSource(seed))
}

// Clock returns the clock recovery unit; the transport collaborator feeds it
func (e *Engine) Clock() *ClockRecovery { return e.clock }

// Store returns the preset store
func (e *Engine) Store() *Store { return e.store }

// StartRuntime starts the scheduler goroutine (call once at startup)
func (e *Engine) StartRuntime() {
	e.stopChan = make(chan struct{})
	go e.run()
}

// StopRuntime stops the scheduler goroutine
func (e *Engine) StopRuntime() {
	if e.stopChan != nil {
		close(e.stopChan)
		e.stopChan = nil
	}
}

func (e *Engine) run() {
	step := time.NewTicker(stepInterval)
	ui := time.NewTicker(time.Second / updateFPS)
	defer step.Stop()
	defer ui.Stop()

	last := time.Now()
	for {
		select {
		case <-e.stopChan:
			return
		case <-step.C:
			now := time.Now()
			dt := now.Sub(last).Seconds()
			last = now
			e.Step(now, dt)
		case <-ui.C:
			e.notifyUpdate()
		}
	}
}

// Step runs one scheduler tick: advance phases, sample waveforms, resolve
// routings, emit changed values. Exported so tests can drive time directly.
func (e *Engine) Step(now time.Time, dt float64) {
	clock := e.clock.State(now)

	type emission struct {
		dest  DestinationID
		value float64
	}
	var emits []emission

	e.mu.Lock()
	for _, s := range e.slots {
		wraps := s.pe.Step(clock, dt)
		for i := 0; i < wraps; i++ {
			s.hold.Roll(e.rng)
		}
		s.sample = Sample(s.pe.Config().Shape, s.pe.Phase(), &s.hold)
	}
	for dest, r := range e.routings {
		s := e.slot(r.Osc)
		if s == nil {
			continue
		}
		def, ok := Lookup(dest)
		if !ok {
			continue
		}
		depth := s.pe.Config().Depth * s.pe.FadeGain()
		v := Resolve(s.sample, depth, r, def)
		e.outputs[dest] = v
		if last, sent := e.lastSent[dest]; !sent || math.Abs(v-last) >= emitEpsilon {
			e.lastSent[dest] = v
			e.emitted++
			emits = append(emits, emission{dest, v})
		}
	}
	emit := e.emit
	e.mu.Unlock()

	if emit != nil {
		for _, em := range emits {
			emit(em.dest, em.value)
		}
	}
}

func (e *Engine) slot(id string) *slot {
	for _, s := range e.slots {
		if s.id == id {
			return s
		}
	}
	return nil
}

// AddOscillator adds a slot ("lfo2", ...) for multi-oscillator fan-out
func (e *Engine) AddOscillator(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.slot(id) != nil {
		return fmt.Errorf("oscillator %q already exists", id)
	}
	e.slots = append(e.slots, &slot{id: id, pe: NewPhaseEngine(DefaultOscillatorConfig())})
	return nil
}

// Oscillators lists the slot ids in order
func (e *Engine) Oscillators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.id
	}
	return out
}

// Enable arms an oscillator
func (e *Engine) Enable(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.slot(id); s != nil {
		s.pe.Enable()
		debug.Log("engine", "enable %s", id)
	}
}

// Disable stops an oscillator; no queued advance applies after this returns
func (e *Engine) Disable(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.slot(id); s != nil {
		s.pe.Disable()
		debug.Log("engine", "disable %s", id)
	}
}

// Config returns an oscillator's parameter set
func (e *Engine) Config(id string) (OscillatorConfig, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if s := e.slot(id); s != nil {
		return s.pe.Config(), true
	}
	return OscillatorConfig{}, false
}

// SetConfig replaces an oscillator's parameter set in one step
func (e *Engine) SetConfig(id string, cfg OscillatorConfig) {
	cfg.Depth = clamp(cfg.Depth, 0, 100)
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.slot(id); s != nil {
		s.pe.SetConfig(cfg)
	}
}

// SetShape changes just the waveform
func (e *Engine) SetShape(id string, shape Shape) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.slot(id); s != nil {
		cfg := s.pe.Config()
		cfg.Shape = shape
		s.pe.SetConfig(cfg)
	}
}

// SetDepth changes just the depth, clamped to 0..100
func (e *Engine) SetDepth(id string, depth float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.slot(id); s != nil {
		cfg := s.pe.Config()
		cfg.Depth = clamp(depth, 0, 100)
		s.pe.SetConfig(cfg)
	}
}

// SetRouting adds or replaces the routing for its destination
func (e *Engine) SetRouting(r Routing) error {
	if _, ok := Lookup(r.Destination); !ok {
		return fmt.Errorf("unknown destination %q", r.Destination)
	}
	r.Amount = clamp(r.Amount, 0, 100)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.routings[r.Destination] = r.Clone()
	return nil
}

// ClearRouting removes the routing for a destination
func (e *Engine) ClearRouting(dest DestinationID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.routings, dest)
	delete(e.outputs, dest)
	delete(e.lastSent, dest)
}

// Routings returns copies of the active routing set
func (e *Engine) Routings() []Routing {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Routing, 0, len(e.routings))
	for _, d := range Destinations() { // stable display order
		if r, ok := e.routings[d.ID]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

// SavePreset snapshots an oscillator's config plus the whole routing set
func (e *Engine) SavePreset(name, oscID string) error {
	e.mu.RLock()
	s := e.slot(oscID)
	if s == nil {
		e.mu.RUnlock()
		return fmt.Errorf("unknown oscillator %q", oscID)
	}
	cfg := s.pe.Config()
	routings := make([]Routing, 0, len(e.routings))
	for _, d := range Destinations() {
		if r, ok := e.routings[d.ID]; ok {
			routings = append(routings, r.Clone())
		}
	}
	e.mu.RUnlock()
	return e.store.Save(name, cfg, routings)
}

// LoadPreset applies a stored preset to an oscillator: the config and the
// routing set swap in one step, so a concurrent Step observes either the
// fully-old or the fully-new configuration.
func (e *Engine) LoadPreset(index int, oscID string) error {
	cfg, routings, err := e.store.Load(index)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.slot(oscID)
	if s == nil {
		return fmt.Errorf("unknown oscillator %q", oscID)
	}
	s.pe.SetConfig(cfg)
	next := make(map[DestinationID]Routing, len(routings))
	for _, r := range routings {
		next[r.Destination] = r
	}
	e.routings = next
	e.outputs = make(map[DestinationID]float64)
	e.lastSent = make(map[DestinationID]float64)
	debug.Log("engine", "loaded preset %d onto %s (%d routings)", index, oscID, len(routings))
	return nil
}

// DeletePreset removes a stored preset
func (e *Engine) DeletePreset(index int) error {
	return e.store.Delete(index)
}

// Snapshot returns a consistent read-only view for display
func (e *Engine) Snapshot(now time.Time) Snapshot {
	clock := e.clock.State(now)
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap := Snapshot{
		Clock:   clock,
		Oscs:    make([]OscSnapshot, len(e.slots)),
		Outputs: make(map[DestinationID]float64, len(e.outputs)),
		Emitted: e.emitted,
	}
	for i, s := range e.slots {
		snap.Oscs[i] = OscSnapshot{
			ID:       s.id,
			Enabled:  s.pe.Enabled(),
			State:    s.pe.State(),
			Phase:    s.pe.Phase(),
			Sample:   s.sample,
			FadeGain: s.pe.FadeGain(),
			Config:   s.pe.Config(),
		}
	}
	for k, v := range e.outputs {
		snap.Outputs[k] = v
	}
	return snap
}

func (e *Engine) notifyUpdate() {
	select {
	case e.UpdateChan <- struct{}{}:
	default:
	}
}
