package engine

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Preset store errors
var (
	ErrDuplicateName = errors.New("preset name already exists")
	ErrOutOfRange    = errors.New("preset index out of range")
)

// Preset is a named snapshot of an oscillator config and its routings.
// The embedded config is a value, never a shared reference to the live one.
type Preset struct {
	Name     string           `json:"name"`
	Config   OscillatorConfig `json:"config"`
	Routings []Routing        `json:"routings"`
}

func (p Preset) clone() Preset {
	out := Preset{Name: p.Name, Config: p.Config}
	out.Routings = cloneRoutings(p.Routings)
	return out
}

func cloneRoutings(rs []Routing) []Routing {
	if rs == nil {
		return nil
	}
	out := make([]Routing, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}

// Store holds presets in insertion order
type Store struct {
	mu      sync.Mutex
	presets []Preset
}

// NewStore creates an empty preset store
func NewStore() *Store {
	return &Store{}
}

// Save snapshots the given config and routings under name. The stored preset
// is a deep copy: later edits to the live state never leak into it.
func (s *Store) Save(name string, cfg OscillatorConfig, routings []Routing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.presets {
		if p.Name == name {
			return ErrDuplicateName
		}
	}
	s.presets = append(s.presets, Preset{
		Name:     name,
		Config:   cfg,
		Routings: cloneRoutings(routings),
	})
	return nil
}

// Load returns deep copies of the preset at index
func (s *Store) Load(index int) (OscillatorConfig, []Routing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.presets) {
		return OscillatorConfig{}, nil, ErrOutOfRange
	}
	p := s.presets[index].clone()
	return p.Config, p.Routings, nil
}

// Delete removes the preset at index
func (s *Store) Delete(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.presets) {
		return ErrOutOfRange
	}
	s.presets = append(s.presets[:index], s.presets[index+1:]...)
	return nil
}

// List returns copies of all presets in insertion order
func (s *Store) List() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Preset, len(s.presets))
	for i, p := range s.presets {
		out[i] = p.clone()
	}
	return out
}

// Len returns the number of stored presets
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.presets)
}

// ----- Disk persistence ----- //

type storeFile struct {
	Presets []Preset `json:"presets"`
}

// SaveFile writes the whole store to path as JSON
func (s *Store) SaveFile(path string) error {
	s.mu.Lock()
	data, err := json.MarshalIndent(&storeFile{Presets: s.presets}, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFile replaces the store contents from path. A missing file leaves the
// store empty and is not an error.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	s.mu.Lock()
	s.presets = f.Presets
	s.mu.Unlock()
	return nil
}
