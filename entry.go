package graft

import (
	"sort"
	"sync"
)

// entry is an installed binding. Entries are never replaced once installed.
type entry struct {
	key      Key
	supplier Supplier
	target   string
	resolved bool
	scope    Scope
}

func (e *entry) binding() Binding {
	return Binding{
		Key:       e.key,
		Target:    e.target,
		Resolved:  e.resolved,
		Singleton: e.scope != Transient,
		Eager:     e.scope == EagerSingleton,
	}
}

// Binding describes an installed binding.
type Binding struct {
	Key    Key
	Target string

	// Resolved is set for instance and producer bindings, which need no graph construction.
	Resolved  bool
	Singleton bool
	Eager     bool
}

// store is the key to supplier map. Installation is insert-if-absent.
type store struct {
	entries sync.Map
}

func (s *store) load(key Key) (*entry, bool) {
	e, ok := s.entries.Load(key.Direct())
	if !ok {
		return nil, false
	}
	return e.(*entry), true
}

// install stores e unless the key is already bound, and returns the winner.
func (s *store) install(e *entry) (actual *entry, installed bool) {
	e.key = e.key.Direct()

	existing, loaded := s.entries.LoadOrStore(e.key, e)
	return existing.(*entry), !loaded
}

func (s *store) snapshot() []Binding {
	var out []Binding

	s.entries.Range(func(_, value any) bool {
		out = append(out, value.(*entry).binding())
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
