package project

import (
	"errors"
)

// ErrNotFound is returned when no project with the requested id exists.
var ErrNotFound = errors.New("project not found")

// Collection is an ordered snapshot of projects, newest-created first.
type Collection []*Project

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, p := range c {
		out[i] = p.Clone()
	}
	return out
}

// IDs returns the set of project ids present in the collection.
func (c Collection) IDs() map[string]bool {
	ids := make(map[string]bool, len(c))
	for _, p := range c {
		ids[p.ID] = true
	}
	return ids
}

// Store is the in-memory project collection. It owns the id-uniqueness and
// ordering invariants: insertion order with the newest-created project
// first, matching the original sidebar.
//
// The store is mutated from a single goroutine (the CLI command path);
// it performs no locking of its own. Callers that need cross-goroutine
// access hold snapshots, never the store.
type Store struct {
	projects Collection
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of projects in the store.
func (s *Store) Len() int {
	return len(s.projects)
}

// List returns a snapshot of the collection in display order.
func (s *Store) List() Collection {
	return s.projects.Clone()
}

// Find returns a copy of the project with the given id, or ErrNotFound.
func (s *Store) Find(id string) (*Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// Upsert inserts p if its id is unseen, otherwise replaces the existing
// record in place. New projects go to the front of the collection. Every
// successful upsert refreshes the project's UpdatedAt.
func (s *Store) Upsert(p *Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cp := p.Clone()
	cp.Touch()
	for i, existing := range s.projects {
		if existing.ID == cp.ID {
			s.projects[i] = cp
			return nil
		}
	}
	s.projects = append(Collection{cp}, s.projects...)
	return nil
}

// Remove deletes the project with the given id. Returns ErrNotFound if no
// such project exists.
func (s *Store) Remove(id string) error {
	for i, p := range s.projects {
		if p.ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Replace swaps the whole collection for c. Used when a mirror (local
// persistence or the remote document) wins reconciliation; no field-level
// merge is attempted. Records failing validation are dropped rather than
// poisoning the store.
func (s *Store) Replace(c Collection) {
	next := make(Collection, 0, len(c))
	seen := make(map[string]bool, len(c))
	for _, p := range c {
		if p == nil || seen[p.ID] {
			continue
		}
		cp := p.Clone()
		cp.SetDefaults()
		if err := cp.Validate(); err != nil {
			continue
		}
		seen[cp.ID] = true
		next = append(next, cp)
	}
	s.projects = next
}

// Merge adds only the projects from c whose ids are not already present.
// Returns the number of projects added.
func (s *Store) Merge(c Collection) int {
	existing := s.projects.IDs()
	added := 0
	for _, p := range c {
		if p == nil || existing[p.ID] {
			continue
		}
		cp := p.Clone()
		cp.SetDefaults()
		if err := cp.Validate(); err != nil {
			continue
		}
		existing[cp.ID] = true
		s.projects = append(s.projects, cp)
		added++
	}
	return added
}
