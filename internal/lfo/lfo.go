// Package lfo provides the always-running low-frequency oscillator the
// engine taps as a shared modulation source. One instance modulates the
// filter cutoff of every voice; it is sampled once per frame, never per
// voice.
package lfo

import "math"

// LFO is a sine low-frequency oscillator. Depth units are whatever the
// consumer needs (the engine uses Hz of cutoff deviation).
type LFO struct {
	rateHz float64
	depth  float64
	phase  float64 // [0, 1)
}

// Set configures rate and depth. The phase keeps running across changes so
// depth sweeps are click-free.
func (l *LFO) Set(rateHz, depth float64) {
	if rateHz < 0 {
		rateHz = 0
	}
	l.rateHz = rateHz
	l.depth = depth
}

// Rate returns the configured rate in Hz.
func (l *LFO) Rate() float64 { return l.rateHz }

// Depth returns the configured depth.
func (l *LFO) Depth() float64 { return l.depth }

// Sample advances the oscillator by one frame and returns a value in
// [-depth, +depth]. Returns 0 when idle so callers can skip modulation work.
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate == 0 {
		return 0
	}
	v := math.Sin(2 * math.Pi * l.phase)
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1 {
		l.phase -= 1
	}
	return v * l.depth
}

// Active reports whether sampling would produce non-zero modulation.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.phase = 0
}
