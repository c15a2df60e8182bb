// Package polysynth is a real-time polyphonic synthesizer: three selectable
// engines (subtractive, FM, procedural drums), a shared wet/dry effects bus,
// an arpeggiator, a 16-step sequencer, and four preset slots. The Synth
// facade is the only surface UI code talks to; everything underneath renders
// on a pull-model audio stream.
package polysynth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	intarp "github.com/telleri/polysynth-go/internal/arp"
	intaudio "github.com/telleri/polysynth-go/internal/audio"
	intdrums "github.com/telleri/polysynth-go/internal/drums"
	intfx "github.com/telleri/polysynth-go/internal/effects"
	intengine "github.com/telleri/polysynth-go/internal/engine"
	intpreset "github.com/telleri/polysynth-go/internal/preset"
	intscope "github.com/telleri/polysynth-go/internal/scope"
	intseq "github.com/telleri/polysynth-go/internal/seq"
	"github.com/telleri/polysynth-go/internal/state"
)

// EffectKind re-exports the toggleable effect stages.
type EffectKind = intfx.Kind

const (
	EffectReverb     = intfx.Reverb
	EffectDelay      = intfx.Delay
	EffectDistortion = intfx.Distortion
)

// PresetSlots is the number of preset slots.
const PresetSlots = intpreset.Slots

// SequencerSteps is the pattern length.
const SequencerSteps = intseq.Steps

type Option func(*synthConfig)

type synthConfig struct {
	sampleTap func([]float32)
	onStep    func(step int, playing bool)
}

// WithSampleTap installs a callback invoked with each rendered stereo
// buffer. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *synthConfig) {
		cfg.sampleTap = tap
	}
}

// WithStepCallback installs the sequencer's step-cursor callback for the
// UI's playing markers. step is -1 when the sequencer stops.
func WithStepCallback(fn func(step int, playing bool)) Option {
	return func(cfg *synthConfig) {
		cfg.onStep = fn
	}
}

// Synth owns the full instrument. The settings tree lives behind the
// engine's lock (the audio goroutine reads it mid-render); the facade
// mutex covers only facade-local state: the backend handle, the preset
// store, the effect flag map, and the last-played note.
type Synth struct {
	mu         sync.Mutex
	sampleRate int
	engine     *intengine.Engine
	fx         *intfx.Chain
	masterEQ   *intfx.EQ5Band
	tap        *intscope.Tap
	sampleTap  func([]float32)
	arp        *intarp.Arpeggiator
	seq        *intseq.Sequencer
	presets    *intpreset.Store
	backend    *intaudio.Player
	lastNote   string

	msgCh   chan string
	msgChMu sync.Mutex
}

// renderSink is the pull endpoint the audio stream reads from:
// engine mix, effects bus, master EQ, then the analysis taps.
type renderSink struct {
	s *Synth
}

func (r *renderSink) Process(dst []float32) {
	r.s.engine.Process(dst)
	r.s.fx.Process(dst)
	r.s.masterEQ.Process(dst)
	r.s.tap.Feed(dst)
	if r.s.sampleTap != nil {
		r.s.sampleTap(dst)
	}
}

func New(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	var cfg synthConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	fx, err := intfx.NewChain(sampleRate)
	if err != nil {
		return nil, err
	}
	st := state.Defaults()
	s := &Synth{
		sampleRate: sampleRate,
		engine:     intengine.New(sampleRate, st),
		fx:         fx,
		masterEQ:   intfx.NewEQ5Band(sampleRate),
		tap:        intscope.NewTap(),
		sampleTap:  cfg.sampleTap,
		presets:    intpreset.NewStore(),
	}
	s.arp = intarp.New(s.arpTrigger, s.arpStop, s.arpDirection)
	s.seq = intseq.New(st.Global.Tempo, s.seqTrigger, cfg.onStep)
	return s, nil
}

// InitAudioEngine starts the audio output stream. Idempotent; the first
// successful call posts "AUDIO ON". When the backend cannot be constructed
// the failure is posted as a transient message and the synth keeps running
// silently; a later call may retry.
func (s *Synth) InitAudioEngine() {
	s.mu.Lock()
	if s.backend != nil {
		s.mu.Unlock()
		return
	}
	backend, err := intaudio.NewPlayer(s.sampleRate, &renderSink{s: s})
	if err != nil {
		s.mu.Unlock()
		s.sendMessage("AUDIO UNAVAILABLE")
		return
	}
	s.backend = backend
	s.mu.Unlock()
	backend.Play()
	s.sendMessage("AUDIO ON")
}

// AudioRunning reports whether the output stream is up.
func (s *Synth) AudioRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend != nil
}

// Close tears the instrument down: sequencer, arpeggiator, voices, stream.
func (s *Synth) Close() error {
	s.seq.Stop()
	s.arp.Stop()
	s.engine.StopAllNotes(true)
	s.mu.Lock()
	backend := s.backend
	s.backend = nil
	s.mu.Unlock()
	if backend != nil {
		return backend.Stop()
	}
	return nil
}

// Messages returns a channel of transient status strings ("AUDIO ON",
// "PRESET 2 SAVED"). Buffered (cap 8); messages are dropped rather than
// blocking when nobody is receiving. Only the most recent channel receives;
// re-subscribing closes the previous channel so an old consumer's range
// loop terminates.
func (s *Synth) Messages() <-chan string {
	ch := make(chan string, 8)
	s.msgChMu.Lock()
	old := s.msgCh
	s.msgCh = ch
	if old != nil {
		close(old)
	}
	s.msgChMu.Unlock()
	return ch
}

func (s *Synth) sendMessage(msg string) {
	// Send under the lock so a concurrent re-subscribe cannot close the
	// channel out from under the send.
	s.msgChMu.Lock()
	defer s.msgChMu.Unlock()
	if s.msgCh != nil {
		select {
		case s.msgCh <- msg:
		default:
		}
	}
}

// PlayNote starts a note on the active engine and returns its id. Drum
// triggers return ok with an empty id (fire and forget). Unknown note names
// are silent no-ops with ok false.
func (s *Synth) PlayNote(note string) (id string, ok bool) {
	id, ok = s.engine.PlayNote(note)
	if ok {
		s.mu.Lock()
		s.lastNote = note
		s.mu.Unlock()
	}
	return id, ok
}

// PlayNoteFor is PlayNote with an automatic release after duration seconds.
func (s *Synth) PlayNoteFor(note string, duration float64) (id string, ok bool) {
	id, ok = s.engine.PlayNoteFor(note, duration)
	if ok {
		s.mu.Lock()
		s.lastNote = note
		s.mu.Unlock()
	}
	return id, ok
}

// StopNote releases a note. Unknown ids are ignored; with hold active a
// non-immediate stop on a latched note is suppressed.
func (s *Synth) StopNote(id string, immediate bool) {
	s.engine.StopNote(id, immediate)
}

// StopAllNotes releases every sounding note.
func (s *Synth) StopAllNotes(immediate bool) {
	s.engine.StopAllNotes(immediate)
}

// UpdateAllFilters re-applies the global cutoff to every active voice.
func (s *Synth) UpdateAllFilters() {
	s.engine.UpdateAllFilters()
}

// ToggleEffect flips one effect stage and returns its new state. The wet
// level crossfades; toggling never clicks.
func (s *Synth) ToggleEffect(kind EffectKind) bool {
	s.mu.Lock()
	on := s.fx.Toggle(kind)
	s.mu.Unlock()
	s.engine.WithSettings(func(st *state.Settings) {
		switch kind {
		case EffectReverb:
			st.Global.Reverb = on
		case EffectDelay:
			st.Global.Delay = on
		case EffectDistortion:
			st.Global.Distortion = on
		}
	})
	label := strings.ToUpper(string(kind))
	if on {
		s.sendMessage(label + " ON")
	} else {
		s.sendMessage(label + " OFF")
	}
	return on
}

// EffectEnabled reports one stage's state.
func (s *Synth) EffectEnabled(kind EffectKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fx.Enabled(kind)
}

func (s *Synth) arpTrigger(note string) (string, bool) {
	return s.PlayNote(note)
}

func (s *Synth) arpStop(id string) {
	s.engine.StopNote(id, true)
}

func (s *Synth) arpDirection() state.ArpDirection {
	return s.engine.Snapshot().Global.Dir
}

// StartArpeggiator launches the arp clock with an empty held list.
func (s *Synth) StartArpeggiator() {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Arp = true
	})
	s.arp.Start()
}

// StopArpeggiator halts the clock and cuts the sounding arp note.
func (s *Synth) StopArpeggiator() {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Arp = false
	})
	s.arp.Stop()
}

// ArpeggiatorRunning reports whether the arp clock is live.
func (s *Synth) ArpeggiatorRunning() bool {
	return s.arp.Running()
}

// AddToArp registers a depressed key with the arpeggiator.
func (s *Synth) AddToArp(note string) {
	s.arp.Add(note)
}

// RemoveFromArp drops a released key from the arpeggiator.
func (s *Synth) RemoveFromArp(note string) {
	s.arp.Remove(note)
}

func (s *Synth) seqTrigger(duration float64) {
	s.mu.Lock()
	note := s.lastNote
	s.mu.Unlock()
	if note == "" {
		return
	}
	s.engine.PlayNoteFor(note, duration)
}

// StartSequencer launches the step clock from step 0.
func (s *Synth) StartSequencer() {
	s.seq.SetTempo(s.engine.Snapshot().Global.Tempo)
	s.seq.Start()
}

// StopSequencer halts the step clock; the pattern is preserved.
func (s *Synth) StopSequencer() {
	s.seq.Stop()
}

// SequencerRunning reports whether the step clock is live.
func (s *Synth) SequencerRunning() bool {
	return s.seq.Running()
}

// ToggleStep flips one pattern step and returns its new state.
func (s *Synth) ToggleStep(i int) bool {
	return s.seq.ToggleStep(i)
}

// Pattern returns a snapshot of the 16-step pattern.
func (s *Synth) Pattern() [SequencerSteps]bool {
	return s.seq.Pattern()
}

// SavePreset snapshots the settings tree and the pattern into a slot.
func (s *Synth) SavePreset(slot int) {
	snap := s.engine.Snapshot()
	s.mu.Lock()
	ok := s.presets.Save(slot, &snap, s.seq.Pattern())
	s.mu.Unlock()
	if ok {
		s.sendMessage(fmt.Sprintf("PRESET %d SAVED", slot+1))
	}
}

// LoadPreset restores a slot: all notes are cut, the arp and sequencer
// stop, and the saved settings and pattern replace the live ones. An empty
// slot restores defaults and a blank pattern. The arp restarts when the
// restored settings have it enabled.
func (s *Synth) LoadPreset(slot int) {
	if slot < 0 || slot >= PresetSlots {
		return
	}
	s.engine.StopAllNotes(true)
	s.arp.Stop()
	s.seq.Stop()

	s.mu.Lock()
	snap, ok := s.presets.Load(slot)
	s.lastNote = ""
	s.mu.Unlock()

	var g state.Global
	s.engine.WithSettings(func(st *state.Settings) {
		if ok {
			*st = snap.Settings
		} else {
			*st = *state.Defaults()
		}
		g = st.Global
	})
	if ok {
		s.seq.SetPattern(snap.Pattern)
	} else {
		s.seq.SetPattern([SequencerSteps]bool{})
	}

	s.mu.Lock()
	s.fx.SetEnabled(EffectReverb, g.Reverb)
	s.fx.SetEnabled(EffectDelay, g.Delay)
	s.fx.SetEnabled(EffectDistortion, g.Distortion)
	s.mu.Unlock()

	s.engine.UpdateAllFilters()
	s.engine.SetLFO(g.LFORate, g.LFODepth)
	s.seq.SetTempo(g.Tempo)
	if g.Arp {
		s.arp.Start()
	}
	s.sendMessage(fmt.Sprintf("PRESET %d LOADED", slot+1))
}

// PresetOccupied reports whether a slot holds a snapshot.
func (s *Synth) PresetOccupied(slot int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presets.Occupied(slot)
}

// SetEngine switches the active synthesis engine. Parameter blocks for the
// inactive engines are preserved.
func (s *Synth) SetEngine(kind state.EngineKind) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Engine = kind
	})
}

// SetWaveform selects the subtractive oscillator shape.
func (s *Synth) SetWaveform(w string) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Sub.Waveform = w
	})
}

// SetADSR writes the envelope of the active tonal engine.
func (s *Synth) SetADSR(env state.ADSR) {
	s.engine.WithSettings(func(st *state.Settings) {
		if st.Engine == state.FM {
			st.FM.Env = env
		} else {
			st.Sub.Env = env
		}
	})
}

// SetOctave shifts the active tonal engine by whole octaves.
func (s *Synth) SetOctave(oct int) {
	s.engine.WithSettings(func(st *state.Settings) {
		if st.Engine == state.FM {
			st.FM.Octave = oct
		} else {
			st.Sub.Octave = oct
		}
	})
}

// SetCutoff writes the global lowpass cutoff and retunes every voice.
func (s *Synth) SetCutoff(hz float64) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Cutoff = hz
	})
	s.engine.UpdateAllFilters()
}

// SetLFORate sets the cutoff-modulation LFO rate in Hz.
func (s *Synth) SetLFORate(hz float64) {
	var depth float64
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.LFORate = hz
		depth = st.Global.LFODepth
	})
	s.engine.SetLFO(hz, depth)
}

// SetLFODepth sets the cutoff-modulation depth in Hz.
func (s *Synth) SetLFODepth(depth float64) {
	var rate float64
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.LFODepth = depth
		rate = st.Global.LFORate
	})
	s.engine.SetLFO(rate, depth)
}

// SetFaderMode selects what the front-panel fader writes.
func (s *Synth) SetFaderMode(mode state.FaderMode) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Fader = mode
	})
}

// SetFader routes the fader value to cutoff or LFO depth per the fader
// mode. The caller clamps the value to the parameter's range.
func (s *Synth) SetFader(value float64) {
	if s.engine.Snapshot().Global.Fader == state.FaderLFODepth {
		s.SetLFODepth(value)
	} else {
		s.SetCutoff(value)
	}
}

// SetHold latches sounding notes against ordinary note-off. Switching hold
// off releases everything that was latched.
func (s *Synth) SetHold(on bool) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Hold = on
	})
	if !on {
		s.engine.ReleaseHeld()
	}
}

// SetMono switches true monophonic last-note-priority behavior.
func (s *Synth) SetMono(on bool) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Mono = on
	})
}

// SetPolyphony sets the voice ceiling, floored at 1.
func (s *Synth) SetPolyphony(n int) {
	if n < 1 {
		n = 1
	}
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Polyphony = n
	})
}

// SetKit selects a drum kit and loads its knob defaults.
func (s *Synth) SetKit(name string) {
	p := intdrums.KitParams(name)
	s.engine.WithSettings(func(st *state.Settings) {
		st.Drum.Kit = name
		st.Drum.Tune = p.Tune
		st.Drum.Decay = p.Decay
		st.Drum.Tone = p.Tone
	})
}

// SetDrumKnobs writes the drum timbre knobs, each in 0..1.
func (s *Synth) SetDrumKnobs(tune, decay, tone float64) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Drum.Tune = tune
		st.Drum.Decay = decay
		st.Drum.Tone = tone
	})
}

// SetFMAlgorithm selects the operator wiring.
func (s *Synth) SetFMAlgorithm(alg state.FMAlgorithm) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.FM.Algorithm = alg
	})
}

// SetFMRatio sets the modulator/carrier frequency ratio.
func (s *Synth) SetFMRatio(ratio float64) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.FM.Ratio = ratio
	})
}

// SetFMIndex sets the modulation index.
func (s *Synth) SetFMIndex(index float64) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.FM.Index = index
	})
}

// SetTempo sets the sequencer BPM.
func (s *Synth) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Tempo = bpm
	})
	s.seq.SetTempo(bpm)
}

// SetArpDirection sets the held-note walk order; applies on the next tick.
func (s *Synth) SetArpDirection(dir state.ArpDirection) {
	s.engine.WithSettings(func(st *state.Settings) {
		st.Global.Dir = dir
	})
}

// Settings returns a copy of the live parameter tree for UI rendering.
func (s *Synth) Settings() state.Settings {
	return s.engine.Snapshot()
}

// Waveform snapshots the last n rendered mono samples for the
// oscilloscope.
func (s *Synth) Waveform(n int) []float32 {
	return s.tap.Snapshot(n)
}

// ActiveNotes lists the sounding note names, oldest first.
func (s *Synth) ActiveNotes() []string {
	return s.engine.ActiveNotes()
}

// ActiveNoteCount returns the number of logically active notes.
func (s *Synth) ActiveNoteCount() int {
	return s.engine.ActiveNoteCount()
}

// LastDrumHit reports the most recent percussion trigger for the UI's
// transient display.
func (s *Synth) LastDrumHit() (intdrums.Hit, bool) {
	return s.engine.LastDrumHit()
}

// SetEQBand sets a master EQ band gain (0-4). 1.0 = unity. Lock-free;
// takes effect on the next audio block.
func (s *Synth) SetEQBand(band int, gain float32) {
	s.masterEQ.SetGain(band, gain)
}

// EQBand returns a master EQ band gain.
func (s *Synth) EQBand(band int) float32 {
	return s.masterEQ.Gain(band)
}
