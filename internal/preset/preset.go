// Package preset stores full-state snapshots: the settings tree plus the
// sequencer pattern. Slots are value copies in both directions, so live
// edits never bleed into a saved slot.
package preset

import (
	"github.com/telleri/polysynth-go/internal/seq"
	"github.com/telleri/polysynth-go/internal/state"
)

// Slots is the number of preset slots.
const Slots = 4

// Snapshot is one saved slot.
type Snapshot struct {
	Settings state.Settings
	Pattern  [seq.Steps]bool
}

// Store holds the preset slots. Not goroutine-safe; the facade serializes
// access behind its own mutex.
type Store struct {
	slots [Slots]*Snapshot
}

func NewStore() *Store {
	return &Store{}
}

func valid(slot int) bool {
	return slot >= 0 && slot < Slots
}

// Save snapshots the given state into the slot, overwriting any previous
// contents. Out-of-range slots report false.
func (s *Store) Save(slot int, st *state.Settings, pattern [seq.Steps]bool) bool {
	if !valid(slot) {
		return false
	}
	s.slots[slot] = &Snapshot{Settings: *st.Clone(), Pattern: pattern}
	return true
}

// Load returns a copy of the slot's snapshot. ok is false when the slot is
// empty or out of range; the caller then restores defaults.
func (s *Store) Load(slot int) (Snapshot, bool) {
	if !valid(slot) || s.slots[slot] == nil {
		return Snapshot{}, false
	}
	// Settings is all value fields; the struct copy is the deep copy.
	snap := *s.slots[slot]
	return snap, true
}

// Occupied reports whether the slot holds a snapshot.
func (s *Store) Occupied(slot int) bool {
	return valid(slot) && s.slots[slot] != nil
}

// Clear empties the slot.
func (s *Store) Clear(slot int) {
	if valid(slot) {
		s.slots[slot] = nil
	}
}
