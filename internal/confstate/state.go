package confstate

import (
	"maps"
	"slices"
	"sync"
)

// Map is a string keyed configuration map. Multiple values under one key are
// space separated.
type Map map[string]string

// Keys returns the map's keys in lexical order.
func (m Map) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Clone returns an independent copy of m. A nil map clones to an empty one.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	maps.Copy(out, m)
	return out
}

// State is the mutable configuration store of one run.
type State struct {
	mu       sync.Mutex
	system   Map
	project  Map
	defines  Map
	profiles map[string]Map
}

// New creates an empty State.
func New() *State {
	return &State{
		system:   make(Map),
		project:  make(Map),
		defines:  make(Map),
		profiles: make(map[string]Map),
	}
}

// SetSystem records a host fact, replacing any previous value.
func (s *State) SetSystem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.system[key] = value
}

// Set stores a project value, replacing any previous value.
func (s *State) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project[key] = value
}

// Append extends a project value: the stored value becomes the previous one
// (empty if absent) followed by a space and value. Appending "-msse4.2" to
// an absent key therefore stores " -msse4.2".
func (s *State) Append(key, value string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project[key] = s.project[key] + " " + value
	return s.project[key]
}

// Define stores a defines entry. The write always happens; overwrote reports
// whether an earlier value was replaced so the caller can warn.
func (s *State) Define(key, value string) (previous string, overwrote bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, overwrote = s.defines[key]
	s.defines[key] = value
	return previous, overwrote
}

// Get returns a project value.
func (s *State) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.project[key]
	return v, ok
}

// System returns a host fact.
func (s *State) System(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.system[key]
	return v, ok
}

// Defined returns a defines entry.
func (s *State) Defined(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.defines[key]
	return v, ok
}

// SetProfile stores key in the named build profile, creating the profile.
func (s *State) SetProfile(profile, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.profiles[profile]
	if !ok {
		m = make(Map)
		s.profiles[profile] = m
	}
	m[key] = value
}

// AddProfile registers an empty build profile if it does not exist yet.
func (s *State) AddProfile(profile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile]; !ok {
		s.profiles[profile] = make(Map)
	}
}

// Snapshot is a deep copy of a State at one instant.
type Snapshot struct {
	System   Map
	Project  Map
	Defines  Map
	Profiles map[string]Map
}

// ProfileNames returns the profile names in lexical order.
func (s Snapshot) ProfileNames() []string {
	return slices.Sorted(maps.Keys(s.Profiles))
}

// Snapshot copies every map so the result can be read without locking.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		System:   s.system.Clone(),
		Project:  s.project.Clone(),
		Defines:  s.defines.Clone(),
		Profiles: make(map[string]Map, len(s.profiles)),
	}
	for name, m := range s.profiles {
		snap.Profiles[name] = m.Clone()
	}
	return snap
}
