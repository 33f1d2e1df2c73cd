package overlay

import (
	"sort"
	"sync"
)

// CategorySet is the set of display category names seen in one render pass.
type CategorySet map[string]struct{}

// NewCategorySet creates a set holding names.
func NewCategorySet(names ...string) CategorySet {
	s := make(CategorySet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name.
func (s CategorySet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s CategorySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names.
func (s CategorySet) Len() int {
	return len(s)
}

// Names returns the names sorted alphabetically.
func (s CategorySet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both sets hold the same names.
func (s CategorySet) Equal(o CategorySet) bool {
	if len(s) != len(o) {
		return false
	}
	for n := range s {
		if !o.Has(n) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s CategorySet) Clone() CategorySet {
	c := make(CategorySet, len(s))
	for n := range s {
		c[n] = struct{}{}
	}
	return c
}

// CategoryStore keeps the latest category set of each surface kind. Every
// Set replaces the previous set; sets are never merged.
type CategoryStore struct {
	mu   sync.RWMutex
	sets map[SurfaceKind]CategorySet
}

// NewCategoryStore creates an empty store.
func NewCategoryStore() *CategoryStore {
	return &CategoryStore{sets: make(map[SurfaceKind]CategorySet)}
}

// Set replaces the category set of kind.
func (s *CategoryStore) Set(kind SurfaceKind, set CategorySet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[kind] = set.Clone()
}

// Get returns a copy of the latest category set of kind, empty if none.
func (s *CategoryStore) Get(kind SurfaceKind) CategorySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[kind].Clone()
}

// Reset drops the category set of kind.
func (s *CategoryStore) Reset(kind SurfaceKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, kind)
}
