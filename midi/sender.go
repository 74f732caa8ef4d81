package midi

import (
	"math"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-modulate/debug"
	"go-modulate/engine"
)

// Sender turns resolved destination values into outbound control change
// messages on the synth port. Ports are opened lazily and cached.
type Sender struct {
	port    string
	channel uint8 // 0-based MIDI channel

	sendersMu sync.RWMutex
	senders   map[string]func(gomidi.Message) error

	ccFor map[engine.DestinationID]uint8
}

// NewSender creates a sender for the given output port and 1-based channel.
// ccOverrides (keyed by destination id) take precedence over the registry's
// suggested CC numbers.
func NewSender(port string, channel int, ccOverrides map[string]uint8) *Sender {
	if channel < 1 {
		channel = 1
	}
	if channel > 16 {
		channel = 16
	}
	ccFor := make(map[engine.DestinationID]uint8)
	for _, def := range engine.Destinations() {
		ccFor[def.ID] = def.CC
	}
	for id, cc := range ccOverrides {
		ccFor[engine.DestinationID(id)] = cc
	}
	return &Sender{
		port:    port,
		channel: uint8(channel - 1),
		senders: make(map[string]func(gomidi.Message) error),
		ccFor:   ccFor,
	}
}

// Emit satisfies engine.Emitter: map the destination value onto its CC data
// byte and send. Drops silently when no port is available.
func (s *Sender) Emit(dest engine.DestinationID, value float64) {
	def, ok := engine.Lookup(dest)
	if !ok {
		return
	}
	cc, ok := s.ccFor[dest]
	if !ok {
		return
	}
	send := s.getSender(s.port)
	if send == nil {
		return
	}
	// ranges are 127 wide, so value-min is already the data byte
	data := math.Round(value - def.Min)
	if data < 0 {
		data = 0
	}
	if data > 127 {
		data = 127
	}
	if err := send(gomidi.ControlChange(s.channel, cc, uint8(data))); err != nil {
		debug.LogEvery(128, "midi", "send cc%d failed: %v", cc, err)
	}
}

// getSender returns a sender for the given port name, lazily opening it
func (s *Sender) getSender(portName string) func(gomidi.Message) error {
	if portName == "" {
		return nil
	}

	s.sendersMu.RLock()
	if sender, ok := s.senders[portName]; ok {
		s.sendersMu.RUnlock()
		return sender
	}
	s.sendersMu.RUnlock()

	s.sendersMu.Lock()
	defer s.sendersMu.Unlock()

	// Double-check after acquiring write lock
	if sender, ok := s.senders[portName]; ok {
		return sender
	}

	for _, port := range gomidi.GetOutPorts() {
		if port.String() == portName {
			sender, err := gomidi.SendTo(port)
			if err != nil {
				return nil
			}
			s.senders[portName] = sender
			return sender
		}
	}
	return nil
}
