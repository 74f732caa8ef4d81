package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-modulate/config"
	"go-modulate/debug"
	"go-modulate/engine"
	"go-modulate/midi"
	"go-modulate/tui"
)

func main() {
	debugLog := flag.Bool("debug", false, "write a debug log under the config dir")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *debugLog {
		if dir, err := config.ConfigDir(); err == nil {
			if err := debug.Enable(dir); err != nil {
				fmt.Printf("Warning: debug log unavailable: %v\n", err)
			}
			defer debug.Disable()
		}
	}

	// Outbound CC path to the synth
	sender := midi.NewSender(cfg.SynthOutput.PortName, cfg.SynthOutput.Channel, cfg.SynthOutput.CCMap)

	// Modulation engine
	eng := engine.NewEngine(sender.Emit)
	if path, err := config.PresetsPath(); err == nil {
		if err := eng.Store().LoadFile(path); err != nil {
			fmt.Printf("Warning: could not read presets: %v\n", err)
		}
	}
	eng.StartRuntime()
	defer eng.StopRuntime()

	// Clock source monitor (handles hot-plug)
	mon := midi.NewMonitor(cfg.ClockInput.PortName, eng.Clock().Ingest, eng.Clock().Reset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.ClockInput.AutoConnect {
		go mon.Run(ctx)
	}

	presetsPath, _ := config.PresetsPath()
	m := tui.NewModel(eng, mon, cfg.UI.FocusedOsc, presetsPath)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
