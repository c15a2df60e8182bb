package effects

import "math"

// Compressor implements basic dynamic range compression over interleaved
// stereo blocks. It sits last on the bus so stacked effects cannot push the
// output past the converter.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32 // coefficient
	release   float32 // coefficient
	makeup    float32
	envL      float32
	envR      float32
}

// NewCompressor creates a compressor.
// thresholdDB: threshold in dB (e.g. -18)
// ratio: compression ratio (e.g. 4 for 4:1)
// attackMs/releaseMs: envelope follower times
// makeupDB: makeup gain in dB
func NewCompressor(sampleRate int, thresholdDB, ratio, attackMs, releaseMs, makeupDB float32) *Compressor {
	sr := float64(sampleRate)
	return &Compressor{
		threshold: float32(math.Pow(10, float64(thresholdDB)/20)),
		ratio:     ratio,
		attack:    float32(1.0 - math.Exp(-1.0/(float64(attackMs)*sr/1000.0))),
		release:   float32(1.0 - math.Exp(-1.0/(float64(releaseMs)*sr/1000.0))),
		makeup:    float32(math.Pow(10, float64(makeupDB)/20)),
	}
}

func (c *Compressor) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		l, r := buf[i], buf[i+1]
		absL := float32(math.Abs(float64(l)))
		absR := float32(math.Abs(float64(r)))
		if absL > c.envL {
			c.envL += c.attack * (absL - c.envL)
		} else {
			c.envL += c.release * (absL - c.envL)
		}
		if absR > c.envR {
			c.envR += c.attack * (absR - c.envR)
		} else {
			c.envR += c.release * (absR - c.envR)
		}
		buf[i] = l * c.gain(c.envL) * c.makeup
		buf[i+1] = r * c.gain(c.envR) * c.makeup
	}
}

func (c *Compressor) gain(env float32) float32 {
	if env <= c.threshold || c.threshold <= 0 {
		return 1.0
	}
	over := env / c.threshold
	return float32(math.Pow(float64(over), float64(1.0/c.ratio-1)))
}

func (c *Compressor) Reset() {
	c.envL = 0
	c.envR = 0
}
