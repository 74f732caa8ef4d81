package engine

import "testing"

func TestRegistryIntegrity(t *testing.T) {
	seen := make(map[DestinationID]bool)
	for _, def := range Destinations() {
		if def.ID == DestNone {
			t.Error("registry contains the empty id")
		}
		if seen[def.ID] {
			t.Errorf("duplicate destination id %q", def.ID)
		}
		seen[def.ID] = true

		if def.Max <= def.Min {
			t.Errorf("%s: empty range [%f, %f]", def.ID, def.Min, def.Max)
		}
		if def.Default < def.Min || def.Default > def.Max {
			t.Errorf("%s: default %f outside range", def.ID, def.Default)
		}
		if def.Range() != 127 {
			t.Errorf("%s: range %f, want 127 (CC data byte width)", def.ID, def.Range())
		}
		if def.Name == "" {
			t.Errorf("%s: missing display name", def.ID)
		}
	}
}

func TestLookup(t *testing.T) {
	def, ok := Lookup(DestCutoff)
	if !ok || def.ID != DestCutoff {
		t.Fatal("cutoff lookup failed")
	}
	if def.Cat != CategoryFilter {
		t.Errorf("cutoff category: got %q", def.Cat)
	}
	if _, ok := Lookup("bogus"); ok {
		t.Error("lookup of unknown id succeeded")
	}
}

func TestBipolarCenters(t *testing.T) {
	pan, _ := Lookup(DestPan)
	if !pan.Bipolar {
		t.Fatal("pan should be bipolar")
	}
	if pan.Center() != (pan.Min+pan.Max)/2 {
		t.Errorf("bipolar center: got %f", pan.Center())
	}

	cutoff, _ := Lookup(DestCutoff)
	if cutoff.Bipolar {
		t.Fatal("cutoff should be unipolar")
	}
	if cutoff.Center() != cutoff.Min {
		t.Errorf("unipolar center: got %f, want min", cutoff.Center())
	}
}

func TestDestinationsReturnsCopy(t *testing.T) {
	a := Destinations()
	a[0].Name = "mutated"
	b := Destinations()
	if b[0].Name == "mutated" {
		t.Error("Destinations exposes the internal table")
	}
}
