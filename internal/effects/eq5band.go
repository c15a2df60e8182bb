package effects

import (
	"math"
	"sync/atomic"
)

// EQ5Band implements a 5-band master equalizer with runtime-adjustable
// gains. Bands are split at 200Hz, 800Hz, 2.5kHz, and 8kHz. Gains are
// stored as uint32 (bit-cast float32) for lock-free writes from the UI
// while the audio thread reads.
type EQ5Band struct {
	gains  [5]atomic.Uint32 // float32 bit patterns; 1.0 = unity
	alphas [4]float32       // crossover filter coefficients
	lpL    [4]float32       // lowpass state per crossover, left
	lpR    [4]float32       // lowpass state per crossover, right
}

var eqCrossovers = [4]float64{200, 800, 2500, 8000}

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	dt := 1.0 / float64(sampleRate)
	for i, freq := range eqCrossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		eq.alphas[i] = float32(dt / (rc + dt))
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

// SetGain sets the gain for band (0-4). 1.0 = unity, 0.0 = silence, 2.0 = +6dB.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < 5 {
		eq.gains[band].Store(math.Float32bits(gain))
	}
}

// Gain returns the current gain for band (0-4).
func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < 5 {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

// Process splits each frame into 5 bands using 4 cascaded one-pole
// crossovers, applies the per-band gains, and recombines.
func (eq *EQ5Band) Process(buf []float32) {
	var g [5]float32
	for i := range g {
		g[i] = math.Float32frombits(eq.gains[i].Load())
	}
	unity := g == [5]float32{1, 1, 1, 1, 1}
	for n := 0; n+1 < len(buf); n += 2 {
		l, r := buf[n], buf[n+1]
		var outL, outR float32
		remL, remR := l, r
		for i := 0; i < 4; i++ {
			eq.lpL[i] += eq.alphas[i] * (remL - eq.lpL[i])
			eq.lpR[i] += eq.alphas[i] * (remR - eq.lpR[i])
			outL += eq.lpL[i] * g[i]
			outR += eq.lpR[i] * g[i]
			remL -= eq.lpL[i]
			remR -= eq.lpR[i]
		}
		outL += remL * g[4]
		outR += remR * g[4]
		if !unity {
			buf[n], buf[n+1] = outL, outR
		}
	}
}

func (eq *EQ5Band) Reset() {
	for i := range eq.lpL {
		eq.lpL[i] = 0
		eq.lpR[i] = 0
	}
}
