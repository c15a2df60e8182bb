package engine

import (
	"math"
	"testing"

	"github.com/telleri/polysynth-go/internal/notes"
	"github.com/telleri/polysynth-go/internal/state"
)

const testRate = 8000

func newTestEngine() (*Engine, *state.Settings) {
	st := state.Defaults()
	return New(testRate, st), st
}

func render(e *Engine, frames int) []float32 {
	buf := make([]float32, frames*2)
	e.Process(buf)
	return buf
}

func TestPlayNoteReturnsUniqueIDs(t *testing.T) {
	e, _ := newTestEngine()
	id1, ok1 := e.PlayNote("C4")
	id2, ok2 := e.PlayNote("C4")
	if !ok1 || !ok2 {
		t.Fatal("expected both notes accepted")
	}
	if id1 == "" || id1 == id2 {
		t.Errorf("ids not unique: %q, %q", id1, id2)
	}
}

func TestUnknownNoteIsSilentNoop(t *testing.T) {
	e, _ := newTestEngine()
	if id, ok := e.PlayNote("H9"); ok || id != "" {
		t.Errorf("unknown note accepted: %q, %v", id, ok)
	}
	if e.ActiveNoteCount() != 0 {
		t.Error("registry grew on unknown note")
	}
}

func TestPolyphonyBoundWithFIFOStealing(t *testing.T) {
	e, st := newTestEngine()
	st.Global.Polyphony = 5 // ceiling 3 after headroom
	names := []string{"C4", "D4", "E4", "F4", "G4", "A4"}
	for _, n := range names {
		e.PlayNote(n)
	}
	if got := e.ActiveNoteCount(); got > 3 {
		t.Fatalf("active notes %d exceed ceiling 3", got)
	}
	// The survivors must be the most recent inserts, oldest stolen first.
	want := []string{"F4", "G4", "A4"}
	got := e.ActiveNotes()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s (not FIFO)", i, got[i], want[i])
		}
	}
}

func TestHoldRaisesCeilingToFullPolyphony(t *testing.T) {
	e, st := newTestEngine()
	st.Global.Polyphony = 4
	st.Global.Hold = true
	for _, n := range []string{"C4", "D4", "E4", "F4"} {
		e.PlayNote(n)
	}
	if got := e.ActiveNoteCount(); got != 4 {
		t.Errorf("with hold on, expected 4 active, got %d", got)
	}
}

func TestStopNoteIsIdempotent(t *testing.T) {
	e, _ := newTestEngine()
	id, _ := e.PlayNote("C4")
	e.StopNote(id, false)
	if e.ActiveNoteCount() != 0 {
		t.Fatal("note still registered after stop")
	}
	// Second stop and a bogus id must both be silent no-ops.
	e.StopNote(id, false)
	e.StopNote("Z9-42", true)
	if e.ActiveNoteCount() != 0 {
		t.Error("idempotent stop changed state")
	}
}

func TestHoldSuppressesOrdinaryStop(t *testing.T) {
	e, st := newTestEngine()
	st.Global.Hold = true
	id, _ := e.PlayNote("C4")
	e.StopNote(id, false)
	if e.ActiveNoteCount() != 1 {
		t.Error("hold did not suppress ordinary stop")
	}
	e.StopNote(id, true)
	if e.ActiveNoteCount() != 0 {
		t.Error("immediate stop did not override hold")
	}
}

func TestReleaseHeldDrainsLatch(t *testing.T) {
	e, st := newTestEngine()
	st.Global.Hold = true
	e.PlayNote("C4")
	e.PlayNote("E4")
	st.Global.Hold = false
	e.ReleaseHeld()
	if e.ActiveNoteCount() != 0 {
		t.Errorf("held notes survived ReleaseHeld: %d", e.ActiveNoteCount())
	}
}

func TestMonoModeStopsPredecessors(t *testing.T) {
	e, st := newTestEngine()
	st.Global.Mono = true
	e.PlayNote("C4")
	e.PlayNote("E4")
	e.PlayNote("G4")
	if got := e.ActiveNoteCount(); got != 1 {
		t.Fatalf("mono mode left %d notes active", got)
	}
	if names := e.ActiveNotes(); names[0] != "G4" {
		t.Errorf("mono survivor %s, want last-priority G4", names[0])
	}
}

func TestEnvelopeSustainTarget(t *testing.T) {
	// Scenario: C4, subtractive defaults (attack 0.02, decay 0.1,
	// sustain 0.8, sine). The final pre-release scheduled value must be
	// peak × 0.8.
	e, _ := newTestEngine()
	id, ok := e.PlayNote("C4")
	if !ok || id == "" {
		t.Fatal("expected non-null id")
	}
	if e.ActiveNoteCount() != 1 {
		t.Fatalf("expected exactly one active note")
	}
	e.mu.Lock()
	v := e.registry[id]
	got := v.gain.LastScheduledValue()
	e.mu.Unlock()
	want := notes.PeakGain("sine") * 0.8
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("sustain target %f, want %f", got, want)
	}
}

func TestEnvelopeFloorWithZeroSustain(t *testing.T) {
	e, st := newTestEngine()
	st.Sub.Env.Sustain = 0
	id, _ := e.PlayNote("C4")
	e.mu.Lock()
	got := e.registry[id].gain.LastScheduledValue()
	e.mu.Unlock()
	if got < silenceFloor {
		t.Errorf("scheduled decay target %f below silence floor", got)
	}
}

func TestDrumEngineDispatchesWithoutRegistry(t *testing.T) {
	e, st := newTestEngine()
	st.Engine = state.Drum
	id, ok := e.PlayNote("C4")
	if !ok {
		t.Fatal("drum trigger rejected")
	}
	if id != "" {
		t.Errorf("drum trigger returned id %q, want sentinel", id)
	}
	if e.ActiveNoteCount() != 0 {
		t.Error("drum trigger entered the tonal registry")
	}
	if hit, ok := e.LastDrumHit(); !ok || hit.Instrument == "" {
		t.Error("drum hit not recorded")
	}
	// The percussion voice must be audible in the mix.
	buf := render(e, 512)
	var energy float64
	for _, s := range buf {
		energy += math.Abs(float64(s))
	}
	if energy == 0 {
		t.Error("drum voice produced no output")
	}
}

func TestRenderedNoteProducesSignal(t *testing.T) {
	for _, kind := range []state.EngineKind{state.Subtractive, state.FM} {
		t.Run(kind.String(), func(t *testing.T) {
			e, st := newTestEngine()
			st.Engine = kind
			if _, ok := e.PlayNote("A4"); !ok {
				t.Fatal("note rejected")
			}
			buf := render(e, 2048)
			var peak float64
			for _, s := range buf {
				if a := math.Abs(float64(s)); a > peak {
					peak = a
				}
			}
			if peak < 0.001 {
				t.Errorf("%s produced no signal", kind)
			}
		})
	}
}

func TestFMAlgorithmsAllProduceSignal(t *testing.T) {
	for _, alg := range []state.FMAlgorithm{state.FMSimple, state.FMParallel, state.FMSeries, state.FMFeedback} {
		t.Run(string(alg), func(t *testing.T) {
			e, st := newTestEngine()
			st.Engine = state.FM
			st.FM.Algorithm = alg
			e.PlayNote("A4")
			buf := render(e, 2048)
			var peak float64
			for _, s := range buf {
				if a := math.Abs(float64(s)); a > peak {
					peak = a
				}
			}
			if peak < 0.001 {
				t.Errorf("algorithm %s produced no signal", alg)
			}
		})
	}
}

func TestPlayNoteForAutoStops(t *testing.T) {
	e, _ := newTestEngine()
	id, _ := e.PlayNoteFor("C4", 0.05)
	if e.ActiveNoteCount() != 1 {
		t.Fatal("note not registered")
	}
	// 0.05s at 8kHz = 400 frames; render past the deadline.
	render(e, 600)
	if e.ActiveNoteCount() != 0 {
		t.Error("scheduled stop never fired")
	}
	// Firing again must be harmless.
	e.StopNote(id, false)
}

func TestHoldKeepsTimedNoteAndSpendsDeadline(t *testing.T) {
	e, st := newTestEngine()
	st.Global.Hold = true
	id, _ := e.PlayNoteFor("C4", 0.01)
	// 0.01s at 8kHz = 80 frames; render well past the deadline. Hold
	// suppresses the scheduled stop, but the deadline must be consumed so
	// it does not retry on every subsequent frame.
	render(e, 200)
	if e.ActiveNoteCount() != 1 {
		t.Fatal("hold did not latch the timed note")
	}
	e.mu.Lock()
	remaining := e.registry[id].autoStopAt
	e.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expired stop deadline still armed: %f", remaining)
	}
}

func TestReleaseTailTearsDownPhysicalVoice(t *testing.T) {
	e, st := newTestEngine()
	st.Sub.Env.Release = 0.05
	id, _ := e.PlayNote("C4")
	render(e, 100)
	e.StopNote(id, false)
	if e.ActiveNoteCount() != 0 {
		t.Fatal("logical removal not immediate")
	}
	e.mu.Lock()
	physical := len(e.voices)
	e.mu.Unlock()
	if physical != 1 {
		t.Fatalf("expected tail voice to linger, have %d", physical)
	}
	// Past release (0.05) + teardown pad (0.1): 0.16s = 1280 frames.
	render(e, 1400)
	e.mu.Lock()
	physical = len(e.voices)
	e.mu.Unlock()
	if physical != 0 {
		t.Error("released voice never torn down")
	}
}

func TestReleaseRampNeverJumpsUp(t *testing.T) {
	e, _ := newTestEngine()
	id, _ := e.PlayNote("C4")
	// Stop mid-attack: the release must start from the captured value,
	// not the peak.
	render(e, 40) // 5ms into a 20ms attack
	e.mu.Lock()
	v := e.registry[id]
	now := e.now()
	before := v.gain.ValueAt(now)
	e.mu.Unlock()
	e.StopNote(id, false)
	e.mu.Lock()
	after := v.gain.ValueAt(now)
	e.mu.Unlock()
	if math.Abs(after-before) > 1e-6 {
		t.Errorf("gain jumped on release: %f -> %f", before, after)
	}
}

func TestUpdateAllFiltersTracksCutoff(t *testing.T) {
	e, st := newTestEngine()
	st.Global.Cutoff = 900
	e.UpdateAllFilters()
	e.mu.Lock()
	got := e.curCutoff
	e.mu.Unlock()
	if got != 900 {
		t.Errorf("cutoff %f, want 900", got)
	}
	// Out-of-range writes clamp rather than blow up the filter design.
	st.Global.Cutoff = 1e6
	e.UpdateAllFilters()
	e.mu.Lock()
	got = e.curCutoff
	e.mu.Unlock()
	if got > testRate*0.45 {
		t.Errorf("cutoff %f not clamped", got)
	}
}
