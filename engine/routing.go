package engine

// Routing binds one oscillator to one destination. Routings form a set keyed
// by destination id, so several destinations can follow the same oscillator
// independently.
type Routing struct {
	Osc         string        `json:"osc"` // oscillator slot id, e.g. "lfo1"
	Destination DestinationID `json:"destination"`
	Amount      float64       `json:"amount"`           // 0..100 %
	Center      *float64      `json:"center,omitempty"` // overrides the destination's natural center
}

// Clone returns a deep copy
func (r Routing) Clone() Routing {
	out := r
	if r.Center != nil {
		c := *r.Center
		out.Center = &c
	}
	return out
}

// Resolve maps a bipolar sample through a destination's range. depth and
// routing.Amount are percentages; the result is always clamped to the
// destination's range, silently.
func Resolve(sample, depth float64, r Routing, def Definition) float64 {
	effective := sample * (depth / 100) * (r.Amount / 100)
	var out float64
	if def.Bipolar {
		center := def.Center()
		if r.Center != nil {
			center = *r.Center
		}
		out = center + effective*def.Range()/2
	} else {
		// rescale [-1,1] to a fractional position within [min,max]
		out = def.Min + (effective+1)/2*def.Range()
	}
	return clamp(out, def.Min, def.Max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
