// Package state holds the engine parameter tree. A single Settings value is
// owned by the facade and passed by pointer to each component; every write
// goes through a facade setter, never ambient assignment.
package state

// EngineKind selects which synthesis algorithm PlayNote dispatches to.
type EngineKind int

const (
	Subtractive EngineKind = iota
	FM
	Drum
)

func (k EngineKind) String() string {
	switch k {
	case FM:
		return "fm"
	case Drum:
		return "drum"
	default:
		return "subtractive"
	}
}

// ADSR holds envelope times in seconds and the sustain level in 0..1.
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// SubtractiveParams configures the one-oscillator engine.
type SubtractiveParams struct {
	Waveform string
	Env      ADSR
	Octave   int
}

// FMAlgorithm names the operator wiring of the FM engine.
type FMAlgorithm string

const (
	FMSimple   FMAlgorithm = "simple"
	FMParallel FMAlgorithm = "parallel"
	FMSeries   FMAlgorithm = "series"
	FMFeedback FMAlgorithm = "feedback"
)

// FMParams configures the carrier/modulator network.
type FMParams struct {
	Algorithm FMAlgorithm
	Ratio     float64 // modulator frequency = carrier frequency * Ratio
	Index     float64 // modulation index; deviation = Index * modulator freq
	Env       ADSR
	Octave    int
}

// DrumParams selects the kit and its timbre knobs, all in 0..1.
type DrumParams struct {
	Kit   string
	Tune  float64
	Decay float64
	Tone  float64
}

// FaderMode selects what the front-panel fader writes.
type FaderMode string

const (
	FaderCutoff   FaderMode = "cutoff"
	FaderLFODepth FaderMode = "lfo"
)

// ArpDirection is the arpeggiator walk order over the held notes.
type ArpDirection string

const (
	ArpUp   ArpDirection = "up"
	ArpDown ArpDirection = "down"
)

// Global holds parameters shared across all three engines.
type Global struct {
	Polyphony int
	Cutoff    float64 // lowpass cutoff in Hz
	LFORate   float64 // Hz
	LFODepth  float64 // cutoff modulation depth in Hz
	Fader     FaderMode
	Tempo     float64 // BPM, drives the step sequencer

	Reverb     bool
	Delay      bool
	Distortion bool

	Hold bool
	Mono bool
	Arp  bool
	Dir  ArpDirection
}

// Settings is the full parameter tree. Exactly one Engine is active at a
// time; the blocks for inactive engines are preserved so switching engines
// is non-destructive.
type Settings struct {
	Engine EngineKind
	Sub    SubtractiveParams
	FM     FMParams
	Drum   DrumParams
	Global Global
}

// Defaults returns the power-on parameter tree.
func Defaults() *Settings {
	return &Settings{
		Engine: Subtractive,
		Sub: SubtractiveParams{
			Waveform: "sine",
			Env:      ADSR{Attack: 0.02, Decay: 0.1, Sustain: 0.8, Release: 0.5},
		},
		FM: FMParams{
			Algorithm: FMSimple,
			Ratio:     2,
			Index:     1.5,
			Env:       ADSR{Attack: 0.01, Decay: 0.15, Sustain: 0.7, Release: 0.3},
		},
		Drum: DrumParams{
			Kit:   "analog",
			Tune:  0.5,
			Decay: 0.5,
			Tone:  0.5,
		},
		Global: Global{
			Polyphony: 8,
			Cutoff:    5000,
			LFORate:   4,
			LFODepth:  0,
			Fader:     FaderCutoff,
			Tempo:     120,
			Dir:       ArpUp,
		},
	}
}

// Clone returns a deep copy. Settings contains only value fields, so a
// struct copy is a full snapshot; kept as a method so preset code reads as
// intent rather than relying on that property at every call site.
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// Env returns the envelope of the active tonal engine.
func (s *Settings) Env() ADSR {
	if s.Engine == FM {
		return s.FM.Env
	}
	return s.Sub.Env
}

// Octave returns the octave shift of the active tonal engine.
func (s *Settings) Octave() int {
	if s.Engine == FM {
		return s.FM.Octave
	}
	return s.Sub.Octave
}
