// Package effects implements the shared post-engine bus: three toggleable
// wet/dry stages (convolution reverb, feedback delay, waveshaper distortion)
// in series, feeding a dynamics compressor that protects against
// effect-stacking overload. All processing is in-place on interleaved stereo
// float32 blocks.
package effects

import (
	"math"
	"sync/atomic"
)

// Kind names a toggleable stage.
type Kind string

const (
	Reverb     Kind = "reverb"
	Delay      Kind = "delay"
	Distortion Kind = "distortion"
)

// wetTargets are the fixed wet levels each stage ramps to when enabled.
var wetTargets = map[Kind]float32{
	Reverb:     0.3,
	Delay:      0.25,
	Distortion: 0.6,
}

// wetGain smooths a wet level toward its target with a one-pole
// exponential approach, time constant 0.1 s. Never jumps, so toggling an
// effect cannot click. The target is stored as float32 bits and accessed
// atomically: the UI writes it while the audio thread smooths toward it,
// the same lock-free idiom EQ5Band uses for its band gains.
type wetGain struct {
	cur    float32
	target uint32 // float32 bit pattern
	coeff  float32
}

const wetTimeConst = 0.1

func newWetGain(sampleRate int) wetGain {
	return wetGain{
		coeff: float32(1 - math.Exp(-1/(wetTimeConst*float64(sampleRate)))),
	}
}

func (w *wetGain) setTarget(v float32) {
	atomic.StoreUint32(&w.target, math.Float32bits(v))
}

// next advances the smoothing by one frame and returns the current level.
// Audio thread only.
func (w *wetGain) next() float32 {
	t := math.Float32frombits(atomic.LoadUint32(&w.target))
	w.cur += w.coeff * (t - w.cur)
	return w.cur
}

func (w *wetGain) silent() bool {
	return atomic.LoadUint32(&w.target) == 0 && w.cur < 1e-4
}

// Stage processes one interleaved stereo block in-place.
type Stage interface {
	Process(buf []float32)
	Reset()
}

// Chain is the fixed bus topology: reverb, delay, distortion, compressor.
type Chain struct {
	reverb  *ReverbStage
	delay   *DelayStage
	dist    *DistortionStage
	comp    *Compressor
	enabled map[Kind]bool
}

// NewChain builds the bus for the given sample rate. The reverb's impulse
// response and convolver are constructed here; an impossible configuration
// surfaces as an error rather than a panic on the audio thread.
func NewChain(sampleRate int) (*Chain, error) {
	rv, err := NewReverbStage(sampleRate)
	if err != nil {
		return nil, err
	}
	return &Chain{
		reverb:  rv,
		delay:   NewDelayStage(sampleRate),
		dist:    NewDistortionStage(sampleRate),
		comp:    NewCompressor(sampleRate, -18, 4, 5, 120, 2),
		enabled: map[Kind]bool{},
	}, nil
}

// Process runs one block through the whole bus.
func (c *Chain) Process(buf []float32) {
	c.reverb.Process(buf)
	c.delay.Process(buf)
	c.dist.Process(buf)
	c.comp.Process(buf)
}

// Toggle flips a stage on or off and returns the new state. The wet level
// ramps; the dry path is never interrupted.
func (c *Chain) Toggle(kind Kind) bool {
	c.SetEnabled(kind, !c.enabled[kind])
	return c.enabled[kind]
}

// SetEnabled forces a stage's state, used when a preset load re-applies the
// stored effect flags.
func (c *Chain) SetEnabled(kind Kind, on bool) {
	c.enabled[kind] = on
	var target float32
	if on {
		target = wetTargets[kind]
	}
	switch kind {
	case Reverb:
		c.reverb.wet.setTarget(target)
	case Delay:
		c.delay.wet.setTarget(target)
	case Distortion:
		c.dist.wet.setTarget(target)
	}
}

// Enabled reports a stage's state.
func (c *Chain) Enabled(kind Kind) bool {
	return c.enabled[kind]
}

// Reset clears all effect tails and smoothing state.
func (c *Chain) Reset() {
	c.reverb.Reset()
	c.delay.Reset()
	c.dist.Reset()
	c.comp.Reset()
}
