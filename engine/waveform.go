package engine

import (
	"math"
	"math/rand"
)

// Shape enumerates the oscillator waveforms
type Shape string

const (
	ShapeSine         Shape = "sine"
	ShapeTriangle     Shape = "triangle"
	ShapeSquare       Shape = "square"
	ShapeSaw          Shape = "saw"
	ShapeRamp         Shape = "ramp" // reverse saw
	ShapeSampleHold   Shape = "sample-hold"
	ShapeRandomSmooth Shape = "random-smooth"
)

// Shapes lists all waveforms in display order
func Shapes() []Shape {
	return []Shape{
		ShapeSine, ShapeTriangle, ShapeSquare, ShapeSaw,
		ShapeRamp, ShapeSampleHold, ShapeRandomSmooth,
	}
}

// HoldState carries the random targets for sample-hold and random-smooth.
// It is owned by the caller so Sample stays pure and concurrently callable.
type HoldState struct {
	Prev float64 // value held during the previous cycle
	Next float64 // value held (or eased toward) this cycle
}

// Roll picks a new target at a phase wrap
func (h *HoldState) Roll(rng *rand.Rand) {
	h.Prev = h.Next
	h.Next = rng.Float64()*2 - 1
}

// Sample maps phase and shape to a bipolar value in [-1, 1]. Pure: the only
// state it touches is the caller-owned hold.
func Sample(shape Shape, phase float64, hold *HoldState) float64 {
	switch shape {
	case ShapeSine:
		return math.Sin(2 * math.Pi * phase)
	case ShapeTriangle:
		if phase < 0.5 {
			return phase*4 - 1
		}
		return phase*(-4) + 3
	case ShapeSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case ShapeSaw:
		return phase*2 - 1
	case ShapeRamp:
		return 1 - phase*2
	case ShapeSampleHold:
		return hold.Next
	case ShapeRandomSmooth:
		return hold.Prev + (hold.Next-hold.Prev)*smoothstep(phase)
	}
	return 0
}

func smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}
