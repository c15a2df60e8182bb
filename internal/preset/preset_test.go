package preset

import (
	"reflect"
	"testing"

	"github.com/telleri/polysynth-go/internal/seq"
	"github.com/telleri/polysynth-go/internal/state"
)

func TestSaveLoadRoundTripDeepEquality(t *testing.T) {
	st := state.Defaults()
	st.Engine = state.FM
	st.FM.Ratio = 3.5
	st.Global.Cutoff = 1234
	st.Global.Reverb = true
	var pattern [seq.Steps]bool
	pattern[0], pattern[7], pattern[12] = true, true, true

	store := NewStore()
	if !store.Save(2, st, pattern) {
		t.Fatal("save rejected")
	}
	snap, ok := store.Load(2)
	if !ok {
		t.Fatal("load missed a saved slot")
	}
	if !reflect.DeepEqual(snap.Settings, *st) {
		t.Errorf("settings round trip mismatch:\n got %+v\nwant %+v", snap.Settings, *st)
	}
	if snap.Pattern != pattern {
		t.Errorf("pattern round trip mismatch: %v", snap.Pattern)
	}
}

func TestSaveIsolatesSlotFromLiveEdits(t *testing.T) {
	st := state.Defaults()
	store := NewStore()
	var pattern [seq.Steps]bool
	store.Save(0, st, pattern)

	st.Global.Cutoff = 42
	snap, _ := store.Load(0)
	if snap.Settings.Global.Cutoff == 42 {
		t.Error("live edit leaked into the saved slot")
	}

	// Mutating the loaded copy must not alter the stored snapshot either.
	snap.Settings.Global.Cutoff = 99
	again, _ := store.Load(0)
	if again.Settings.Global.Cutoff == 99 {
		t.Error("loaded copy aliased the stored snapshot")
	}
}

func TestEmptyAndInvalidSlots(t *testing.T) {
	store := NewStore()
	if _, ok := store.Load(1); ok {
		t.Error("empty slot reported occupied")
	}
	if _, ok := store.Load(-1); ok {
		t.Error("negative slot loaded")
	}
	if store.Save(Slots, state.Defaults(), [seq.Steps]bool{}) {
		t.Error("out-of-range save accepted")
	}
	if store.Occupied(0) {
		t.Error("fresh store has occupants")
	}
}

func TestSaveOverwritesAndClearEmpties(t *testing.T) {
	store := NewStore()
	a := state.Defaults()
	a.Global.Tempo = 90
	b := state.Defaults()
	b.Global.Tempo = 150
	store.Save(3, a, [seq.Steps]bool{})
	store.Save(3, b, [seq.Steps]bool{})
	snap, _ := store.Load(3)
	if snap.Settings.Global.Tempo != 150 {
		t.Errorf("overwrite kept stale tempo %f", snap.Settings.Global.Tempo)
	}
	store.Clear(3)
	if store.Occupied(3) {
		t.Error("slot survived Clear")
	}
}
