package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-modulate/debug"
	"go-modulate/engine"
)

// ConnEvent is emitted when the clock source connects/disconnects
type ConnEvent struct {
	Type ConnEventType
	Port string
}

type ConnEventType int

const (
	ClockConnected ConnEventType = iota
	ClockDisconnected
)

// ConnState is the connection snapshot exposed to the presentation layer
type ConnState struct {
	Connected       bool   // clock source open and listening
	DeviceAvailable bool   // any MIDI input port present
	Port            string // open port name (when connected)
}

// Monitor handles hot-plug detection of the MIDI clock source. It polls the
// port list, opens the configured input when it appears, translates realtime
// messages into engine clock events, and resets the clock on disconnect.
type Monitor struct {
	portMatch string // case-insensitive substring; empty means first input
	ingest    func(engine.ClockEvent)
	onLost    func()

	mu         sync.RWMutex
	state      ConnState
	stopListen func()

	events   chan ConnEvent
	pollRate time.Duration
}

// NewMonitor creates a monitor feeding ingest. onLost runs when the open
// clock source disappears (the engine resets its clock there).
func NewMonitor(portMatch string, ingest func(engine.ClockEvent), onLost func()) *Monitor {
	return &Monitor{
		portMatch: portMatch,
		ingest:    ingest,
		onLost:    onLost,
		events:    make(chan ConnEvent, 16),
		pollRate:  time.Second,
	}
}

// Events returns a channel of connect/disconnect events
func (m *Monitor) Events() <-chan ConnEvent {
	return m.events
}

// State returns the current connection snapshot
func (m *Monitor) State() ConnState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Run starts the polling loop (blocking - run in goroutine)
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.pollRate)
	defer ticker.Stop()

	// Initial scan
	m.scan()

	for {
		select {
		case <-ctx.Done():
			m.disconnect()
			close(m.events)
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

func (m *Monitor) scan() {
	// Port queries can hang on a wedged MIDI server; guard with a timeout
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	var inPorts []drivers.In
	select {
	case inPorts = <-ch:
	case <-time.After(3 * time.Second):
		return
	}

	m.mu.Lock()
	m.state.DeviceAvailable = len(inPorts) > 0
	connected := m.state.Connected
	openPort := m.state.Port
	m.mu.Unlock()

	target := m.matchPort(inPorts)

	if connected {
		// still present?
		stillThere := false
		for _, p := range inPorts {
			if p.String() == openPort {
				stillThere = true
				break
			}
		}
		if !stillThere {
			debug.Log("midi", "clock source %q lost", openPort)
			m.disconnect()
			if m.onLost != nil {
				m.onLost()
			}
			m.events <- ConnEvent{Type: ClockDisconnected, Port: openPort}
		}
		return
	}

	if target == nil {
		return
	}
	if err := m.connect(target); err != nil {
		debug.Log("midi", "failed to open %q: %v", target.String(), err)
		return
	}
	m.events <- ConnEvent{Type: ClockConnected, Port: target.String()}
}

func (m *Monitor) matchPort(ins []drivers.In) drivers.In {
	if len(ins) == 0 {
		return nil
	}
	if m.portMatch == "" {
		return ins[0]
	}
	want := strings.ToLower(m.portMatch)
	for i, p := range ins {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return ins[i]
		}
	}
	return nil
}

func (m *Monitor) connect(in drivers.In) error {
	base := time.Now()
	// rtmidi filters clock messages unless timing passthrough is on
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		at := base.Add(time.Duration(timestampms) * time.Millisecond)
		var typ engine.ClockEventType
		switch {
		case msg.Is(gomidi.TimingClockMsg):
			typ = engine.ClockTick
		case msg.Is(gomidi.StartMsg):
			typ = engine.ClockStart
		case msg.Is(gomidi.StopMsg):
			typ = engine.ClockStop
		case msg.Is(gomidi.ContinueMsg):
			typ = engine.ClockContinue
		default:
			return
		}
		m.ingest(engine.ClockEvent{Type: typ, At: at})
	}, gomidi.UseTimeCode())
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.state.Connected = true
	m.state.Port = in.String()
	m.stopListen = stop
	m.mu.Unlock()

	debug.Log("midi", "listening for clock on %q", in.String())
	return nil
}

func (m *Monitor) disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopListen != nil {
		m.stopListen()
		m.stopListen = nil
	}
	m.state.Connected = false
	m.state.Port = ""
}
