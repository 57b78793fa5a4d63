// Package ledger owns the in-memory transaction set and is the only place it
// is mutated. Every mutation is persisted before it returns.
package ledger

import (
	"maps"
	"slices"

	"github.com/jizhang-dev/jizhang/internal/model"
)

// set is an insertion-ordered collection of transactions with unique ids.
type set struct {
	items []model.Transaction
	pos   map[string]int
}

// newSet builds a set from txns. A transaction whose id is already taken is
// given a fresh one from newID. It returns the number of ids reassigned.
func newSet(txns []model.Transaction, newID func() string) (*set, int) {
	s := &set{
		items: make([]model.Transaction, 0, len(txns)),
		pos:   make(map[string]int, len(txns)),
	}
	reassigned := 0
	for _, t := range txns {
		if s.has(t.ID) {
			t.ID = s.freshID(newID)
			reassigned++
		}
		s.add(t)
	}
	return s, reassigned
}

func (s *set) has(id string) bool {
	_, ok := s.pos[id]
	return ok
}

func (s *set) get(id string) (model.Transaction, bool) {
	i, ok := s.pos[id]
	if !ok {
		return model.Transaction{}, false
	}
	return s.items[i], true
}

func (s *set) add(t model.Transaction) {
	s.pos[t.ID] = len(s.items)
	s.items = append(s.items, t)
}

// remove deletes id and reports whether it was present.
func (s *set) remove(id string) bool {
	i, ok := s.pos[id]
	if !ok {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	delete(s.pos, id)
	for j := i; j < len(s.items); j++ {
		s.pos[s.items[j].ID] = j
	}
	return true
}

func (s *set) freshID(newID func() string) string {
	for {
		if id := newID(); !s.has(id) {
			return id
		}
	}
}

func (s *set) len() int {
	return len(s.items)
}

// snapshot returns a copy of the items in insertion order.
func (s *set) snapshot() []model.Transaction {
	return slices.Clone(s.items)
}

func (s *set) clone() *set {
	return &set{items: slices.Clone(s.items), pos: maps.Clone(s.pos)}
}
