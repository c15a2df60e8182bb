package effects

// Delay line constants: a single tap a quarter second back, self-looped at
// moderate feedback.
const (
	delaySeconds  = 0.25
	delayFeedback = 0.3
)

// DelayStage runs a dry unity path in parallel with a feedback delay line.
type DelayStage struct {
	bufL, bufR []float32
	pos        int
	wet        wetGain
}

func NewDelayStage(sampleRate int) *DelayStage {
	n := int(delaySeconds * float64(sampleRate))
	if n < 1 {
		n = 1
	}
	return &DelayStage{
		bufL: make([]float32, n),
		bufR: make([]float32, n),
		wet:  newWetGain(sampleRate),
	}
}

func (s *DelayStage) Process(buf []float32) {
	if s.wet.silent() {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		delL := s.bufL[s.pos]
		delR := s.bufR[s.pos]
		s.bufL[s.pos] = buf[i] + delL*delayFeedback
		s.bufR[s.pos] = buf[i+1] + delR*delayFeedback
		s.pos++
		if s.pos >= len(s.bufL) {
			s.pos = 0
		}
		w := s.wet.next()
		buf[i] += delL * w
		buf[i+1] += delR * w
	}
}

func (s *DelayStage) Reset() {
	for i := range s.bufL {
		s.bufL[i] = 0
		s.bufR[i] = 0
	}
	s.pos = 0
	s.wet.cur = 0
}
