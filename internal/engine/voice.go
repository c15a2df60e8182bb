package engine

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"

	"github.com/telleri/polysynth-go/internal/auto"
	"github.com/telleri/polysynth-go/internal/notes"
	"github.com/telleri/polysynth-go/internal/state"
)

// fmPeakGain is the envelope peak for FM voices; the carrier is always a
// sine so no per-waveform table applies.
const fmPeakGain = 0.35

type voiceKind int

const (
	subtractiveVoice voiceKind = iota
	fmVoice
)

// voice is one sounding note: oscillator state, a biquad filter section,
// and the gain Param carrying the scheduled envelope. The registry owns it
// logically; the physical voices slice owns it until killAt.
type voice struct {
	id    string
	name  string
	start float64
	kind  voiceKind

	gain    auto.Param
	peak    float64
	release float64

	autoStopAt float64 // PlayNoteFor deadline, 0 = none
	killAt     float64 // physical teardown time, 0 = not released

	freq   float64 // base frequency after octave shift and detune
	phase  float64
	wave   string

	// FM operator state
	alg      state.FMAlgorithm
	ratio    float64
	index    float64
	modPhase [2]float64
	prevOut  float64

	filter biquad.Section
}

// newVoice builds a fresh voice for the active tonal engine. The filter
// starts from the shared coefficients; its state is per-voice.
func (e *Engine) newVoice(name string, freq float64, now float64) *voice {
	v := &voice{
		name:   name,
		start:  now,
		freq:   freq,
		filter: biquad.Section{Coefficients: e.coeffs},
	}
	switch e.settings.Engine {
	case state.FM:
		p := e.settings.FM
		v.kind = fmVoice
		v.alg = p.Algorithm
		v.ratio = p.Ratio
		v.index = p.Index
		v.peak = fmPeakGain
		v.release = p.Env.Release
	default:
		p := e.settings.Sub
		v.kind = subtractiveVoice
		v.wave = p.Waveform
		v.peak = notes.PeakGain(p.Waveform)
		v.release = p.Env.Release
		// A few cents of random detune per voice thickens unison retriggers.
		cents := (e.rng.Float64()*2 - 1) * detuneCents
		v.freq = freq * math.Pow(2, cents/1200)
	}
	return v
}

// render produces one mono frame: oscillator → lowpass → envelope gain.
func (v *voice) render(e *Engine, now float64) float64 {
	var s float64
	switch v.kind {
	case fmVoice:
		s = v.renderFM(e.sampleRate)
	default:
		s = oscSample(v.phase, v.wave)
		v.phase = wrapPhase(v.phase + 2*math.Pi*v.freq/e.sampleRate)
	}
	v.filter.Coefficients = e.coeffs
	s = v.filter.ProcessSample(s)
	return s * v.gain.ValueAt(now)
}

// renderFM advances the operator network one frame. Modulators run at
// carrier frequency × ratio; deviation follows the classic FM index
// (deviation = index × modulator frequency), so the index knob scales
// spectral richness independent of pitch.
func (v *voice) renderFM(sr float64) float64 {
	fc := v.freq
	fm1 := fc * v.ratio
	dev1 := v.index * fm1

	var mod float64
	switch v.alg {
	case state.FMParallel:
		// Two modulators summed into the carrier, the second an octave
		// below at 80% index.
		fm2 := fm1 / 2
		dev2 := 0.8 * v.index * fm2
		mod = math.Sin(v.modPhase[0])*dev1 + math.Sin(v.modPhase[1])*dev2
		v.modPhase[0] = wrapPhase(v.modPhase[0] + 2*math.Pi*fm1/sr)
		v.modPhase[1] = wrapPhase(v.modPhase[1] + 2*math.Pi*fm2/sr)
	case state.FMSeries:
		// Modulator chain: m2 bends m1's frequency, m1 bends the carrier.
		// Indices are amplified to survive the cascade.
		fm2 := fm1 * 2
		amp := v.index * 1.5
		mod2 := math.Sin(v.modPhase[1]) * amp * fm2
		v.modPhase[1] = wrapPhase(v.modPhase[1] + 2*math.Pi*fm2/sr)
		mod = math.Sin(v.modPhase[0]) * amp * fm1
		v.modPhase[0] = wrapPhase(v.modPhase[0] + 2*math.Pi*(fm1+mod2)/sr)
	case state.FMFeedback:
		// Plain modulator plus the carrier's own output fed back into its
		// frequency at half index.
		mod = math.Sin(v.modPhase[0])*dev1 + v.prevOut*(v.index/2)*fc
		v.modPhase[0] = wrapPhase(v.modPhase[0] + 2*math.Pi*fm1/sr)
	default: // simple
		mod = math.Sin(v.modPhase[0]) * dev1
		v.modPhase[0] = wrapPhase(v.modPhase[0] + 2*math.Pi*fm1/sr)
	}

	v.phase = wrapPhase(v.phase + 2*math.Pi*(fc+mod)/sr)
	s := math.Sin(v.phase)
	v.prevOut = s
	return s
}

func wrapPhase(p float64) float64 {
	const twoPi = 2 * math.Pi
	for p >= twoPi {
		p -= twoPi
	}
	for p < 0 {
		p += twoPi
	}
	return p
}

// oscSample evaluates one waveform at the given phase (radians).
func oscSample(phase float64, wave string) float64 {
	const twoPi = 2 * math.Pi
	switch wave {
	case "square":
		if math.Mod(phase, twoPi) < math.Pi {
			return 1
		}
		return -1
	case "sawtooth":
		return 1 - 2*math.Mod(phase, twoPi)/twoPi
	case "triangle":
		return 2*math.Abs(2*math.Mod(phase, twoPi)/twoPi-1) - 1
	default: // sine
		return math.Sin(phase)
	}
}
