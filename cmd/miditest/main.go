package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-modulate/engine"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "clock":
		monitorClock()
	case "cc":
		testCC()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI ports")
	fmt.Println("  clock [name]  - Monitor MIDI clock on a port, print recovered tempo")
	fmt.Println("  cc [name]     - Sweep a test CC on an output port")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! MIDI server is hung.")
	}
}

func findIn(name string) drivers.In {
	for _, p := range midi.GetInPorts() {
		if name == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			return p
		}
	}
	return nil
}

func findOut(name string) drivers.Out {
	for _, p := range midi.GetOutPorts() {
		if name == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			return p
		}
	}
	return nil
}

func monitorClock() {
	name := ""
	if len(os.Args) > 2 {
		name = os.Args[2]
	}
	in := findIn(name)
	if in == nil {
		fmt.Println("No matching input port")
		return
	}
	fmt.Printf("Monitoring clock on %s (ctrl+c to stop)\n", in.String())

	rec := engine.NewClockRecovery()
	base := time.Now()
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		at := base.Add(time.Duration(timestampms) * time.Millisecond)
		switch {
		case msg.Is(midi.TimingClockMsg):
			rec.Ingest(engine.ClockEvent{Type: engine.ClockTick, At: at})
		case msg.Is(midi.StartMsg):
			rec.Ingest(engine.ClockEvent{Type: engine.ClockStart, At: at})
			fmt.Println("START")
		case msg.Is(midi.StopMsg):
			rec.Ingest(engine.ClockEvent{Type: engine.ClockStop, At: at})
			fmt.Println("STOP")
		case msg.Is(midi.ContinueMsg):
			rec.Ingest(engine.ClockEvent{Type: engine.ClockContinue, At: at})
			fmt.Println("CONTINUE")
		}
	}, midi.UseTimeCode())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	for {
		time.Sleep(time.Second)
		s := rec.State(time.Now())
		tempo := "unknown"
		if s.TempoKnown {
			tempo = fmt.Sprintf("%.2f bpm", s.Tempo)
		}
		fmt.Printf("running=%v tempo=%s ticks=%d glitches=%d\n", s.Running, tempo, s.Ticks, s.Glitches)
	}
}

func testCC() {
	name := ""
	if len(os.Args) > 2 {
		name = os.Args[2]
	}
	out := findOut(name)
	if out == nil {
		fmt.Println("No matching output port")
		return
	}

	send, err := midi.SendTo(out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("Sweeping CC74 (cutoff) on %s...\n", out.String())
	for v := 0; v < 128; v += 4 {
		send(midi.ControlChange(0, 74, uint8(v)))
		time.Sleep(50 * time.Millisecond)
	}
	for v := 127; v >= 0; v -= 4 {
		send(midi.ControlChange(0, 74, uint8(v)))
		time.Sleep(50 * time.Millisecond)
	}
	fmt.Println("Done")
}
