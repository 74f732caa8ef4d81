package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-modulate/engine"
	"go-modulate/midi"
)

// Model is the thin presentation layer: it polls engine snapshots and turns
// key presses into engine calls. All display state is pulled, never pushed.
type Model struct {
	Engine      *engine.Engine
	Monitor     *midi.Monitor
	PresetsPath string

	focus     string // focused oscillator slot
	presetIdx int
	quitting  bool

	// preset name entry
	naming     bool
	nameBuffer string
	statusLine string
}

type UpdateMsg struct{}

type ConnEventMsg midi.ConnEvent

func NewModel(e *engine.Engine, mon *midi.Monitor, focus, presetsPath string) Model {
	if focus == "" {
		focus = "lfo1"
	}
	return Model{
		Engine:      e,
		Monitor:     mon,
		PresetsPath: presetsPath,
		focus:       focus,
	}
}

func ListenForUpdates(e *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		<-e.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForConn(mon *midi.Monitor) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-mon.Events()
		if !ok {
			return nil
		}
		return ConnEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Engine),
		ListenForConn(m.Monitor),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.naming {
			return m.updateNaming(msg)
		}
		return m.updateKeys(msg)

	case UpdateMsg:
		return m, ListenForUpdates(m.Engine)

	case ConnEventMsg:
		if msg.Type == midi.ClockConnected {
			m.statusLine = "clock source: " + msg.Port
		} else {
			m.statusLine = "clock source lost"
		}
		return m, ListenForConn(m.Monitor)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cfg, _ := m.Engine.Config(m.focus)

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.Engine.Disable(m.focus)
		return m, tea.Quit

	case " ":
		snap := m.Engine.Snapshot(time.Now())
		for _, o := range snap.Oscs {
			if o.ID == m.focus {
				if o.Enabled {
					m.Engine.Disable(m.focus)
				} else {
					m.Engine.Enable(m.focus)
				}
			}
		}

	case "w":
		m.Engine.SetShape(m.focus, nextShape(cfg.Shape, 1))
	case "W":
		m.Engine.SetShape(m.focus, nextShape(cfg.Shape, -1))

	case "m":
		if cfg.Mode == engine.SpeedFree {
			cfg.Mode = engine.SpeedSynced
		} else {
			cfg.Mode = engine.SpeedFree
		}
		m.Engine.SetConfig(m.focus, cfg)

	case "t":
		switch cfg.Trigger {
		case engine.TriggerFree:
			cfg.Trigger = engine.TriggerOneShot
		case engine.TriggerOneShot:
			cfg.Trigger = engine.TriggerSync
		default:
			cfg.Trigger = engine.TriggerFree
		}
		m.Engine.SetConfig(m.focus, cfg)

	case "+", "=":
		m.Engine.SetDepth(m.focus, cfg.Depth+5)
	case "-", "_":
		m.Engine.SetDepth(m.focus, cfg.Depth-5)

	case "]":
		m.adjustRate(cfg, 1)
	case "[":
		m.adjustRate(cfg, -1)

	case "f":
		cfg.FadeIn += 0.5
		m.Engine.SetConfig(m.focus, cfg)
	case "F":
		cfg.FadeIn = 0
		m.Engine.SetConfig(m.focus, cfg)

	case "r":
		m.cycleRouting()

	case "n":
		m.naming = true
		m.nameBuffer = ""

	case "up", "k":
		if m.presetIdx > 0 {
			m.presetIdx--
		}
	case "down", "j":
		if m.presetIdx < m.Engine.Store().Len()-1 {
			m.presetIdx++
		}

	case "enter", "l":
		if err := m.Engine.LoadPreset(m.presetIdx, m.focus); err != nil {
			m.statusLine = err.Error()
		} else {
			m.statusLine = "preset loaded"
		}

	case "D":
		if err := m.Engine.DeletePreset(m.presetIdx); err != nil {
			m.statusLine = err.Error()
		} else {
			m.persistPresets()
			if m.presetIdx > 0 {
				m.presetIdx--
			}
		}
	}

	return m, nil
}

func (m *Model) adjustRate(cfg engine.OscillatorConfig, dir int) {
	if cfg.Mode == engine.SpeedFree {
		if dir > 0 {
			cfg.RateHz *= 2
		} else {
			cfg.RateHz /= 2
		}
		if cfg.RateHz < 0.01 {
			cfg.RateHz = 0.01
		}
		if cfg.RateHz > 50 {
			cfg.RateHz = 50
		}
	} else {
		idx := 0
		for i, r := range engine.MulRates {
			if r == cfg.RateMul {
				idx = i
			}
		}
		idx += dir
		if idx < 0 {
			idx = 0
		}
		if idx >= len(engine.MulRates) {
			idx = len(engine.MulRates) - 1
		}
		cfg.RateMul = engine.MulRates[idx]
	}
	m.Engine.SetConfig(m.focus, cfg)
}

// cycleRouting moves the focused oscillator's routing to the next destination
func (m *Model) cycleRouting() {
	dests := engine.Destinations()
	routings := m.Engine.Routings()

	var current engine.DestinationID
	for _, r := range routings {
		if r.Osc == m.focus {
			current = r.Destination
			break
		}
	}

	idx := -1
	for i, d := range dests {
		if d.ID == current {
			idx = i
		}
	}
	if current != "" {
		m.Engine.ClearRouting(current)
	}
	idx++
	if idx >= len(dests) {
		return // wrapped past the end: leave unrouted
	}
	m.Engine.SetRouting(engine.Routing{
		Osc:         m.focus,
		Destination: dests[idx].ID,
		Amount:      100,
	})
}

func (m Model) updateNaming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		name := strings.TrimSpace(m.nameBuffer)
		m.naming = false
		if name == "" {
			return m, nil
		}
		if err := m.Engine.SavePreset(name, m.focus); err != nil {
			m.statusLine = err.Error()
		} else {
			m.persistPresets()
			m.statusLine = "saved " + name
		}
	case "esc":
		m.naming = false
	case "backspace":
		if len(m.nameBuffer) > 0 {
			m.nameBuffer = m.nameBuffer[:len(m.nameBuffer)-1]
		}
	default:
		if len(msg.String()) == 1 {
			m.nameBuffer += msg.String()
		}
	}
	return m, nil
}

func (m *Model) persistPresets() {
	if m.PresetsPath == "" {
		return
	}
	if err := m.Engine.Store().SaveFile(m.PresetsPath); err != nil {
		m.statusLine = err.Error()
	}
}

func nextShape(s engine.Shape, dir int) engine.Shape {
	shapes := engine.Shapes()
	idx := 0
	for i, sh := range shapes {
		if sh == s {
			idx = i
		}
	}
	idx = (idx + dir + len(shapes)) % len(shapes)
	return shapes[idx]
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Engine.Snapshot(time.Now())
	conn := m.Monitor.State()

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("117"))

	// Header: transport + tempo + connection
	transport := "EXT STOP"
	if snap.Clock.Running {
		transport = "EXT PLAY"
	}
	tempo := "---.-"
	if snap.Clock.TempoKnown {
		tempo = fmt.Sprintf("%5.1f", snap.Clock.Tempo)
	}
	link := "no clock source"
	if conn.Connected {
		link = conn.Port
	} else if conn.DeviceAvailable {
		link = "searching..."
	}
	header := headerStyle.Render(fmt.Sprintf("go-modulate  %s  %sbpm  %s", transport, tempo, link))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	// Oscillators
	for _, o := range snap.Oscs {
		marker := "  "
		if o.ID == m.focus {
			marker = "> "
		}
		run := o.State.String()
		if !o.Enabled {
			run = "off"
		}
		rate := fmt.Sprintf("%.2fHz", o.Config.RateHz)
		if o.Config.Mode == engine.SpeedSynced {
			rate = fmt.Sprintf("x%s/%db", o.Config.RateMul, o.Config.BeatsPerCycle)
		}
		out.WriteString(fmt.Sprintf("%s%s  %-6s %-13s %-8s %-8s depth:%3.0f%%  %s\n",
			marker, o.ID, run, o.Config.Shape, rate, o.Config.Trigger, o.Config.Depth,
			sampleBar(o.Sample)))
	}
	out.WriteString("\n")

	// Routings
	routings := m.Engine.Routings()
	if len(routings) == 0 {
		out.WriteString(dimStyle.Render("  no routing (r to route)"))
		out.WriteString("\n")
	}
	for _, r := range routings {
		def, _ := engine.Lookup(r.Destination)
		v := snap.Outputs[r.Destination]
		out.WriteString(fmt.Sprintf("  %s %s %-12s %3.0f%%  %s\n",
			r.Osc, "→", def.Name, r.Amount, valStyle.Render(fmt.Sprintf("%6.1f", v))))
	}
	out.WriteString("\n")

	// Presets
	presets := m.Engine.Store().List()
	out.WriteString(dimStyle.Render(fmt.Sprintf("  presets (%d)", len(presets))))
	out.WriteString("\n")
	for i, p := range presets {
		cursor := "  "
		if i == m.presetIdx {
			cursor = "> "
		}
		out.WriteString(fmt.Sprintf("  %s%s\n", cursor, p.Name))
	}

	if m.naming {
		out.WriteString(fmt.Sprintf("\n  preset name: %s_\n", m.nameBuffer))
	}
	if m.statusLine != "" {
		out.WriteString("\n  " + dimStyle.Render(m.statusLine) + "\n")
	}

	help := dimStyle.Render("space:run  w:shape  m:mode  t:trig  [/]:rate  +/-:depth  f:fade  r:route  n:save  l:load  D:del  q:quit")
	out.WriteString("\n")
	out.WriteString(help)

	return out.String()
}

// sampleBar renders a bipolar value as a small meter
func sampleBar(v float64) string {
	const width = 21
	pos := int((v + 1) / 2 * float64(width-1))
	if pos < 0 {
		pos = 0
	}
	if pos >= width {
		pos = width - 1
	}
	bar := []rune(strings.Repeat("·", width))
	bar[width/2] = '|'
	bar[pos] = '●'
	return string(bar)
}
