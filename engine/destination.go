package engine

// DestinationID identifies a modulatable parameter on the external synth
type DestinationID string

const (
	DestNone       DestinationID = ""
	DestPitch      DestinationID = "pitch"
	DestPulseWidth DestinationID = "pulse-width"
	DestOscMix     DestinationID = "osc-mix"
	DestCutoff     DestinationID = "cutoff"
	DestResonance  DestinationID = "resonance"
	DestAmpLevel   DestinationID = "amp-level"
	DestPan        DestinationID = "pan"
	DestFxDepth    DestinationID = "fx-depth"
	DestFxRate     DestinationID = "fx-rate"
)

// Category groups destinations for display
type Category string

const (
	CategorySrc    Category = "src"
	CategoryFilter Category = "filter"
	CategoryAmp    Category = "amp"
	CategoryFx     Category = "fx"
)

// Definition describes a destination's range and polarity. Definitions are
// fixed at process start and never mutated.
type Definition struct {
	ID      DestinationID
	Name    string
	Min     float64
	Max     float64
	Default float64
	Unit    string
	Cat     Category
	Bipolar bool  // center is the midpoint rather than Min
	CC      uint8 // suggested control change number (config may override)
}

// Center returns the destination's natural resting value
func (d Definition) Center() float64 {
	if d.Bipolar {
		return (d.Min + d.Max) / 2
	}
	return d.Min
}

// Range returns Max - Min
func (d Definition) Range() float64 {
	return d.Max - d.Min
}

// All ranges are 127 wide so outbound values map 1:1 onto CC data bytes.
var definitions = []Definition{
	{ID: DestPitch, Name: "Pitch", Min: -64, Max: 63, Default: 0, Unit: "st", Cat: CategorySrc, Bipolar: true, CC: 70},
	{ID: DestPulseWidth, Name: "Pulse Width", Min: 0, Max: 127, Default: 64, Cat: CategorySrc, CC: 71},
	{ID: DestOscMix, Name: "Osc Mix", Min: 0, Max: 127, Default: 0, Cat: CategorySrc, CC: 72},
	{ID: DestCutoff, Name: "Cutoff", Min: 0, Max: 127, Default: 127, Cat: CategoryFilter, CC: 74},
	{ID: DestResonance, Name: "Resonance", Min: 0, Max: 127, Default: 0, Cat: CategoryFilter, CC: 75},
	{ID: DestAmpLevel, Name: "Level", Min: 0, Max: 127, Default: 100, Cat: CategoryAmp, CC: 7},
	{ID: DestPan, Name: "Pan", Min: -64, Max: 63, Default: 0, Cat: CategoryAmp, Bipolar: true, CC: 10},
	{ID: DestFxDepth, Name: "FX Depth", Min: 0, Max: 127, Default: 0, Cat: CategoryFx, CC: 91},
	{ID: DestFxRate, Name: "FX Rate", Min: 0, Max: 127, Default: 64, Cat: CategoryFx, CC: 92},
}

var byID = func() map[DestinationID]Definition {
	m := make(map[DestinationID]Definition, len(definitions))
	for _, d := range definitions {
		m[d.ID] = d
	}
	return m
}()

// Lookup returns the definition for a destination id
func Lookup(id DestinationID) (Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// Destinations returns all definitions in display order
func Destinations() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}
