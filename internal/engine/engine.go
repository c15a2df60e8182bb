// Package engine implements the note-lifecycle core: per-note voice
// construction, envelope scheduling against the audio clock, the active
// note registry with FIFO voice stealing, hold latching, and deferred
// physical teardown after release tails.
package engine

import (
	"math/rand"
	"strconv"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/telleri/polysynth-go/internal/drums"
	"github.com/telleri/polysynth-go/internal/lfo"
	"github.com/telleri/polysynth-go/internal/notes"
	"github.com/telleri/polysynth-go/internal/state"
)

const (
	// silenceFloor is the smallest envelope target ever scheduled;
	// exponential ramps to zero are undefined.
	silenceFloor = 0.001
	// immediateRelease replaces the configured release on immediate stops.
	immediateRelease = 0.01
	// teardownPad keeps the physical voice alive slightly past the release
	// ramp so the tail is inaudibly done before the nodes go away.
	teardownPad = 0.1
	// holdHeadroom shrinks the polyphony ceiling when hold is off, leaving
	// room for release tails.
	holdHeadroom = 2

	filterQ     = 1.2
	detuneCents = 4
)

// Engine renders tonal voices and the drum bank into a mono mix, and owns
// every piece of per-note state. One mutex serializes the audio goroutine's
// Process against UI-thread note operations.
type Engine struct {
	mu         sync.Mutex
	sampleRate float64
	settings   *state.Settings
	drums      *drums.Bank
	lfo        lfo.LFO
	rng        *rand.Rand

	frames  int64
	counter int64 // note id suffix, monotonically increasing, never reused

	registry map[string]*voice // logically active notes
	order    []string          // registry insertion order, FIFO steal head first
	held     map[string]bool   // ids latched by hold mode
	voices   []*voice          // physical voices, including release tails

	coeffs    biquad.Coefficients
	curCutoff float64
}

func New(sampleRate int, st *state.Settings) *Engine {
	e := &Engine{
		sampleRate: float64(sampleRate),
		settings:   st,
		drums:      drums.NewBank(sampleRate),
		rng:        rand.New(rand.NewSource(rand.Int63())),
		registry:   make(map[string]*voice),
		held:       make(map[string]bool),
	}
	e.lfo.Set(st.Global.LFORate, st.Global.LFODepth)
	e.setCutoff(st.Global.Cutoff)
	return e
}

func (e *Engine) now() float64 {
	return float64(e.frames) / e.sampleRate
}

// Now returns the current audio-clock time in seconds.
func (e *Engine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now()
}

// PlayNote starts a voice for the named note on the active engine. The
// returned id identifies the note for StopNote; it is empty for drum
// triggers, which are fire-and-forget. ok is false when the note name is
// not recognized (a silent no-op, per the caller-bug policy).
func (e *Engine) PlayNote(name string) (id string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playNote(name, 0)
}

// PlayNoteFor is PlayNote plus an automatic release scheduled after
// duration seconds on the audio clock. Used by the step sequencer.
func (e *Engine) PlayNoteFor(name string, duration float64) (id string, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playNote(name, duration)
}

func (e *Engine) playNote(name string, duration float64) (string, bool) {
	if !notes.Known(name) {
		return "", false
	}
	now := e.now()

	if e.settings.Engine == state.Drum {
		inst, ok := drums.ForNote(name)
		if !ok {
			return "", false
		}
		d := e.settings.Drum
		e.drums.Trigger(inst, drums.Params{Tune: d.Tune, Decay: d.Decay, Tone: d.Tone}, now)
		return "", true
	}

	freq, ok := notes.Frequency(notes.Transpose(name, e.settings.Octave()))
	if !ok {
		return "", false
	}

	if e.settings.Global.Mono && len(e.order) > 0 {
		for _, id := range append([]string(nil), e.order...) {
			e.stopID(id, true)
		}
	}

	ceiling := e.settings.Global.Polyphony
	if !e.settings.Global.Hold {
		ceiling -= holdHeadroom
	}
	if ceiling < 1 {
		ceiling = 1
	}
	for len(e.order) >= ceiling {
		e.stopID(e.order[0], true)
	}

	v := e.newVoice(name, freq, now)
	env := e.settings.Env()
	peak := v.peak

	// Envelope: pin the floor at now (defends against leftover automation),
	// exponential attack to peak, exponential decay to the sustain level.
	// Sustain then holds until release.
	target := peak * env.Sustain
	if target < silenceFloor {
		target = silenceFloor
	}
	v.gain.SetValueAtTime(silenceFloor, now)
	v.gain.ExponentialRampToValueAtTime(peak, now+env.Attack)
	v.gain.ExponentialRampToValueAtTime(target, now+env.Attack+env.Decay)

	e.counter++
	id := name + "-" + strconv.FormatInt(e.counter, 10)
	v.id = id
	e.registry[id] = v
	e.order = append(e.order, id)
	e.voices = append(e.voices, v)
	if e.settings.Global.Hold {
		e.held[id] = true
	}
	if duration > 0 {
		v.autoStopAt = now + duration
	}
	return id, true
}

// WithSettings runs fn on the settings tree under the engine lock. Every
// parameter write goes through here; the render loop reads the tree under
// the same lock, so it never observes a half-applied write.
func (e *Engine) WithSettings(fn func(*state.Settings)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.settings)
}

// Snapshot returns a copy of the settings tree.
func (e *Engine) Snapshot() state.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.settings
}

// StopNote schedules the release of a note. Unknown ids are ignored. With
// hold mode active and the note latched, a non-immediate stop is
// suppressed; immediate stops always go through.
func (e *Engine) StopNote(id string, immediate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopID(id, immediate)
}

func (e *Engine) stopID(id string, immediate bool) {
	v, ok := e.registry[id]
	if !ok {
		return
	}
	if !immediate && e.settings.Global.Hold && e.held[id] {
		return
	}
	now := e.now()
	rel := v.release
	if immediate {
		rel = immediateRelease
	}
	// Pin the current value before ramping so a release triggered
	// mid-attack cannot click.
	cur := v.gain.ValueAt(now)
	if cur < silenceFloor {
		cur = silenceFloor
	}
	v.gain.CancelScheduledValues(now)
	v.gain.SetValueAtTime(cur, now)
	v.gain.ExponentialRampToValueAtTime(silenceFloor, now+rel)
	v.killAt = now + rel + teardownPad

	// Logical removal is immediate; the tail keeps sounding until killAt.
	delete(e.registry, id)
	delete(e.held, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// StopAllNotes stops every registered note. The registry is snapshotted
// first; stopping mutates it.
func (e *Engine) StopAllNotes(immediate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range append([]string(nil), e.order...) {
		e.stopID(id, immediate)
	}
}

// ReleaseHeld clears the hold latch and releases every latched note with a
// normal release ramp. Called when hold mode is switched off.
func (e *Engine) ReleaseHeld() {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.held))
	for id := range e.held {
		ids = append(ids, id)
	}
	for _, id := range ids {
		delete(e.held, id)
		e.stopID(id, false)
	}
}

// UpdateAllFilters re-applies the current global cutoff to every voice.
// Coefficients are shared across voices, so one recompute covers them all.
func (e *Engine) UpdateAllFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setCutoff(e.settings.Global.Cutoff)
}

// SetLFO pushes the settings tree's LFO rate and depth into the running
// oscillator.
func (e *Engine) SetLFO(rateHz, depth float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lfo.Set(rateHz, depth)
}

func (e *Engine) setCutoff(cutoff float64) {
	max := e.sampleRate * 0.45
	if cutoff < 20 {
		cutoff = 20
	}
	if cutoff > max {
		cutoff = max
	}
	if cutoff == e.curCutoff {
		return
	}
	e.curCutoff = cutoff
	e.coeffs = design.Lowpass(cutoff, filterQ, e.sampleRate)
}

// ActiveNoteCount returns the number of logically active notes (registry
// entries; release tails are not counted).
func (e *Engine) ActiveNoteCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.order)
}

// ActiveNotes returns the note names currently registered, oldest first,
// for the UI's key markers.
func (e *Engine) ActiveNotes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.registry[id].name)
	}
	return out
}

// LastDrumHit reports the most recent percussion trigger.
func (e *Engine) LastDrumHit() (drums.Hit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drums.LastHit()
}

// Process renders one interleaved stereo block. Voices are mixed to center;
// the effects bus downstream owns the stereo field.
func (e *Engine) Process(dst []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i+1 < len(dst); i += 2 {
		now := e.now()
		e.fireScheduledStops(now)

		if mod := e.lfo.Sample(e.sampleRate); mod != 0 {
			e.applyCutoffMod(mod)
		} else if e.curCutoff != e.settings.Global.Cutoff {
			e.setCutoff(e.settings.Global.Cutoff)
		}

		var sum float64
		alive := e.voices[:0]
		for _, v := range e.voices {
			if v.killAt > 0 && now >= v.killAt {
				continue
			}
			sum += v.render(e, now)
			alive = append(alive, v)
		}
		for j := len(alive); j < len(e.voices); j++ {
			e.voices[j] = nil
		}
		e.voices = alive

		sum += e.drums.Render()

		if sum > 1 {
			sum = 1
		} else if sum < -1 {
			sum = -1
		}
		s := float32(sum)
		dst[i] = s
		dst[i+1] = s
		e.frames++
	}
}

// fireScheduledStops triggers the automatic note-offs queued by
// PlayNoteFor once their audio-clock deadline passes.
func (e *Engine) fireScheduledStops(now float64) {
	var due []string
	for _, id := range e.order {
		v := e.registry[id]
		if v.autoStopAt > 0 && now >= v.autoStopAt {
			due = append(due, id)
		}
	}
	for _, id := range due {
		// Hold mode suppresses the stop but the deadline is still spent;
		// clearing it keeps the expired stop from retrying every frame.
		e.registry[id].autoStopAt = 0
		e.stopID(id, false)
	}
}

// applyCutoffMod retunes the shared filter to cutoff+mod without touching
// the settings tree.
func (e *Engine) applyCutoffMod(mod float64) {
	cutoff := e.settings.Global.Cutoff + mod
	max := e.sampleRate * 0.45
	if cutoff < 20 {
		cutoff = 20
	}
	if cutoff > max {
		cutoff = max
	}
	if cutoff != e.curCutoff {
		e.curCutoff = cutoff
		e.coeffs = design.Lowpass(cutoff, filterQ, e.sampleRate)
	}
}
