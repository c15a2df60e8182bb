// Package drums implements the procedural percussion bank: each trigger
// spawns a bespoke short-lived synthesis voice (swept sine, filtered noise
// burst, square stack) with an internally fixed lifetime. Voices are
// fire-and-forget: no registry entry, no note id, not stoppable.
package drums

import (
	"math"
	"math/rand"

	"github.com/telleri/polysynth-go/internal/notes"
)

// Instrument names one percussion voice.
type Instrument string

const (
	Kick      Instrument = "kick"
	Snare     Instrument = "snare"
	HatClosed Instrument = "hat-closed"
	HatOpen   Instrument = "hat-open"
	Tom       Instrument = "tom"
	Clap      Instrument = "clap"
	Cymbal    Instrument = "cymbal"
	Cowbell   Instrument = "cowbell"
)

// noteMap dispatches pitch classes to instruments so the whole keyboard
// plays the kit.
var noteMap = map[string]Instrument{
	"C":  Kick,
	"C#": Cowbell,
	"D":  Snare,
	"D#": Clap,
	"E":  HatClosed,
	"F":  HatOpen,
	"F#": Tom,
	"G":  Tom,
	"G#": Cymbal,
	"A":  Clap,
	"A#": Cowbell,
	"B":  Cymbal,
}

// ForNote maps a note name to its drum voice.
func ForNote(name string) (Instrument, bool) {
	pc := notes.PitchClass(name)
	if pc == "" {
		return "", false
	}
	inst, ok := noteMap[pc]
	return inst, ok
}

// Params are the active kit's timbre knobs, each in 0..1.
type Params struct {
	Tune  float64
	Decay float64
	Tone  float64
}

// Hit records the most recent trigger for the display collaborator.
type Hit struct {
	Instrument Instrument
	Time       float64 // audio-clock seconds
}

// Bank owns the live percussion voices and mixes them into the master bus.
type Bank struct {
	sampleRate float64
	voices     []*voice
	lastHit    Hit
	hasHit     bool
	rng        *rand.Rand
}

func NewBank(sampleRate int) *Bank {
	return &Bank{
		sampleRate: float64(sampleRate),
		rng:        rand.New(rand.NewSource(1)),
	}
}

// Trigger starts a voice. now is the audio-clock time, recorded for the
// last-hit display.
func (b *Bank) Trigger(inst Instrument, p Params, now float64) {
	v := newVoice(inst, p, b.sampleRate)
	if v == nil {
		return
	}
	b.voices = append(b.voices, v)
	b.lastHit = Hit{Instrument: inst, Time: now}
	b.hasHit = true
}

// Render produces one mono frame from all live voices and culls the dead.
func (b *Bank) Render() float64 {
	var out float64
	alive := b.voices[:0]
	for _, v := range b.voices {
		out += v.render(b.rng)
		if v.age < v.life {
			alive = append(alive, v)
		}
	}
	// Zero the tail so culled voices do not keep the slice alive.
	for i := len(alive); i < len(b.voices); i++ {
		b.voices[i] = nil
	}
	b.voices = alive
	return out
}

// Active returns the number of live percussion voices.
func (b *Bank) Active() int { return len(b.voices) }

// LastHit returns the most recent trigger, if any.
func (b *Bank) LastHit() (Hit, bool) { return b.lastHit, b.hasHit }

// voice is one in-flight percussion sound. All envelopes are exponential
// decays baked in at trigger time; age runs in samples up to life.
type voice struct {
	inst Instrument
	sr   float64
	age  int
	life int

	// oscillator state
	phase  [3]float64
	freq   [3]float64
	fStart float64 // pitch sweep start (kick/tom)
	fEnd   float64
	sweep  float64 // sweep time constant in seconds

	ampTau  float64 // amplitude decay time constant
	toneLP  float64 // one-pole state for tone shaping
	toneHP  float64
	lpAlpha float64
	level   float64

	clapBursts []float64 // burst start times for the clap retrigger envelope
}

func newVoice(inst Instrument, p Params, sr float64) *voice {
	clampKnob(&p.Tune)
	clampKnob(&p.Decay)
	clampKnob(&p.Tone)
	v := &voice{inst: inst, sr: sr}
	switch inst {
	case Kick:
		v.fStart = 120 + 140*p.Tune
		v.fEnd = 35 + 30*p.Tune
		v.sweep = 0.035
		v.ampTau = 0.06 + 0.18*p.Decay
		v.life = int(sr * (0.2 + 0.5*p.Decay))
		v.level = 0.9
		v.setToneLP(p.Tone, 1000, 8000)
	case Snare:
		v.freq[0] = 160 + 80*p.Tune
		v.ampTau = 0.035 + 0.08*p.Decay
		v.life = int(sr * (0.15 + 0.25*p.Decay))
		v.level = 0.6
		v.setToneLP(p.Tone, 1500, 9000)
	case HatClosed:
		v.ampTau = 0.012 + 0.03*p.Decay
		v.life = int(sr * (0.05 + 0.08*p.Decay))
		v.level = 0.35
		v.setToneLP(p.Tone, 3000, 12000)
	case HatOpen:
		v.ampTau = 0.08 + 0.2*p.Decay
		v.life = int(sr * (0.3 + 0.5*p.Decay))
		v.level = 0.3
		v.setToneLP(p.Tone, 3000, 12000)
	case Tom:
		v.fStart = 140 + 160*p.Tune
		v.fEnd = 70 + 80*p.Tune
		v.sweep = 0.06
		v.ampTau = 0.06 + 0.15*p.Decay
		v.life = int(sr * (0.25 + 0.35*p.Decay))
		v.level = 0.7
		v.setToneLP(p.Tone, 1200, 6000)
	case Clap:
		v.ampTau = 0.04 + 0.08*p.Decay
		v.life = int(sr * (0.2 + 0.2*p.Decay))
		v.level = 0.55
		v.clapBursts = []float64{0, 0.012, 0.024}
		v.setToneLP(p.Tone, 1200, 6000)
	case Cymbal:
		base := 0.7 + 0.6*p.Tune
		v.freq[0] = 205.3 * base
		v.freq[1] = 304.4 * base
		v.freq[2] = 369.6 * base
		v.ampTau = 0.15 + 0.5*p.Decay
		v.life = int(sr * (0.6 + 1.2*p.Decay))
		v.level = 0.3
		v.setToneLP(p.Tone, 4000, 14000)
	case Cowbell:
		base := 0.8 + 0.4*p.Tune
		v.freq[0] = 540 * base
		v.freq[1] = 800 * base
		v.ampTau = 0.03 + 0.06*p.Decay
		v.life = int(sr * (0.12 + 0.18*p.Decay))
		v.level = 0.5
		v.setToneLP(p.Tone, 1500, 6000)
	default:
		return nil
	}
	if v.life < 1 {
		v.life = 1
	}
	return v
}

func clampKnob(v *float64) {
	if *v < 0 {
		*v = 0
	}
	if *v > 1 {
		*v = 1
	}
}

// setToneLP maps the tone knob onto a one-pole lowpass cutoff between lo
// and hi Hz.
func (v *voice) setToneLP(tone, lo, hi float64) {
	cutoff := lo + (hi-lo)*tone
	rc := 1 / (2 * math.Pi * cutoff)
	dt := 1 / v.sr
	v.lpAlpha = dt / (rc + dt)
}

func (v *voice) render(rng *rand.Rand) float64 {
	t := float64(v.age) / v.sr
	var s float64
	switch v.inst {
	case Kick:
		f := v.fEnd + (v.fStart-v.fEnd)*math.Exp(-t/v.sweep)
		v.phase[0] += 2 * math.Pi * f / v.sr
		body := math.Sin(v.phase[0]) * math.Exp(-t/v.ampTau)
		click := (rng.Float64()*2 - 1) * math.Exp(-t/0.004) * 0.4
		s = body + click
	case Snare:
		v.phase[0] += 2 * math.Pi * v.freq[0] / v.sr
		tonal := tri(v.phase[0]) * math.Exp(-t/0.04) * 0.5
		noise := (rng.Float64()*2 - 1) * math.Exp(-t/v.ampTau)
		s = tonal + v.shapeNoise(noise)
	case HatClosed, HatOpen:
		noise := (rng.Float64()*2 - 1) * math.Exp(-t/v.ampTau)
		s = v.highpassed(noise)
	case Tom:
		f := v.fEnd + (v.fStart-v.fEnd)*math.Exp(-t/v.sweep)
		v.phase[0] += 2 * math.Pi * f / v.sr
		s = math.Sin(v.phase[0]) * math.Exp(-t/v.ampTau)
	case Clap:
		noise := rng.Float64()*2 - 1
		var env float64
		for _, b := range v.clapBursts {
			if t >= b {
				e := math.Exp(-(t - b) / 0.008)
				if e > env {
					env = e
				}
			}
		}
		// Tail after the burst cluster.
		if tail := math.Exp(-t/v.ampTau) * 0.5; tail > env {
			env = tail
		}
		s = v.shapeNoise(noise * env)
	case Cymbal:
		var metal float64
		for i := 0; i < 3; i++ {
			v.phase[i] += 2 * math.Pi * v.freq[i] / v.sr
			metal += sqr(v.phase[i])
		}
		noise := rng.Float64()*2 - 1
		s = v.highpassed((metal/3*0.6 + noise*0.7) * math.Exp(-t/v.ampTau))
	case Cowbell:
		v.phase[0] += 2 * math.Pi * v.freq[0] / v.sr
		v.phase[1] += 2 * math.Pi * v.freq[1] / v.sr
		s = v.shapeNoise((sqr(v.phase[0]) + sqr(v.phase[1])) * 0.5 * math.Exp(-t/v.ampTau))
	}
	v.age++
	return s * v.level
}

// shapeNoise runs the tone lowpass.
func (v *voice) shapeNoise(x float64) float64 {
	v.toneLP += v.lpAlpha * (x - v.toneLP)
	return v.toneLP
}

// highpassed subtracts the tone lowpass, leaving the top end; brighter tone
// knob keeps less bottom.
func (v *voice) highpassed(x float64) float64 {
	v.toneHP += v.lpAlpha * (x - v.toneHP)
	return x - v.toneHP*0.8
}

func tri(phase float64) float64 {
	p := math.Mod(phase/(2*math.Pi), 1)
	if p < 0.5 {
		return 4*p - 1
	}
	return 3 - 4*p
}

func sqr(phase float64) float64 {
	if math.Mod(phase, 2*math.Pi) < math.Pi {
		return 1
	}
	return -1
}
