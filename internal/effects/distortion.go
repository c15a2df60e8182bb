package effects

import "math"

// Waveshaper curve: f(x) = (3+k)·x·(π/9) / (π + k·|x|), k = 50. Evaluated
// into a fixed-resolution lookup table over [-1, 1] with linear
// interpolation between entries.
const (
	distortionK     = 50.0
	distortionTable = 2048
)

// DistortionStage runs a dry unity path in parallel with the waveshaper.
type DistortionStage struct {
	curve [distortionTable]float32
	wet   wetGain
}

func NewDistortionStage(sampleRate int) *DistortionStage {
	s := &DistortionStage{wet: newWetGain(sampleRate)}
	deg20 := math.Pi / 9
	for i := range s.curve {
		x := float64(i)*2/float64(distortionTable-1) - 1
		s.curve[i] = float32((3 + distortionK) * x * deg20 / (math.Pi + distortionK*math.Abs(x)))
	}
	return s
}

func (s *DistortionStage) Process(buf []float32) {
	if s.wet.silent() {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		w := s.wet.next()
		buf[i] += s.shape(buf[i]) * w
		buf[i+1] += s.shape(buf[i+1]) * w
	}
}

// shape looks up the curve with linear interpolation, clamping outside
// [-1, 1] to the table edges.
func (s *DistortionStage) shape(x float32) float32 {
	pos := (float64(x) + 1) / 2 * float64(distortionTable-1)
	if pos <= 0 {
		return s.curve[0]
	}
	if pos >= float64(distortionTable-1) {
		return s.curve[distortionTable-1]
	}
	i := int(pos)
	frac := float32(pos - float64(i))
	return s.curve[i] + (s.curve[i+1]-s.curve[i])*frac
}

func (s *DistortionStage) Reset() {
	s.wet.cur = 0
}
