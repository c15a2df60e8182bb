package effects

import (
	"math/rand"

	"github.com/cwbudde/algo-dsp/dsp/conv"
)

// Impulse response shape: white noise under a squared linear decay, about
// two seconds long. The same envelope the convolver stage has always used;
// changing it changes the room.
const (
	irSeconds    = 2.0
	irMinBlkOrd  = 8  // 256-sample wet-path latency
	irMaxBlkOrd  = 13 // cap partition size at 8192
	reverbIRSeed = 0x5eed
)

// ReverbStage runs a dry unity path in parallel with partitioned FFT
// convolution of a procedurally generated stereo impulse response.
type ReverbStage struct {
	convL *conv.PartitionedConvolution32
	convR *conv.PartitionedConvolution32
	wet   wetGain

	inL, inR   []float32
	outL, outR []float32
}

// NewReverbStage generates the impulse response and builds one convolver
// per channel.
func NewReverbStage(sampleRate int) (*ReverbStage, error) {
	irLen := int(irSeconds * float64(sampleRate))
	rng := rand.New(rand.NewSource(reverbIRSeed))
	irL := generateImpulse(irLen, rng)
	irR := generateImpulse(irLen, rng)

	cl, err := conv.NewPartitionedConvolution32(irL, irMinBlkOrd, irMaxBlkOrd)
	if err != nil {
		return nil, err
	}
	cr, err := conv.NewPartitionedConvolution32(irR, irMinBlkOrd, irMaxBlkOrd)
	if err != nil {
		return nil, err
	}
	return &ReverbStage{
		convL: cl,
		convR: cr,
		wet:   newWetGain(sampleRate),
	}, nil
}

// generateImpulse returns irLen samples of amplitude(t) = rand(-1,1) * (1 - t/len)^2.
func generateImpulse(irLen int, rng *rand.Rand) []float32 {
	ir := make([]float32, irLen)
	for i := range ir {
		decay := 1 - float64(i)/float64(irLen)
		ir[i] = float32((rng.Float64()*2 - 1) * decay * decay)
	}
	return ir
}

func (s *ReverbStage) Process(buf []float32) {
	frames := len(buf) / 2
	if frames == 0 {
		return
	}
	if s.wet.silent() {
		// Convolving a multi-second tail is the expensive part of the whole
		// bus; skip it entirely while the stage is fully off.
		return
	}
	s.grow(frames)
	for i := 0; i < frames; i++ {
		s.inL[i] = buf[2*i]
		s.inR[i] = buf[2*i+1]
	}
	if err := s.convL.ProcessBlock(s.inL[:frames], s.outL[:frames]); err != nil {
		return
	}
	if err := s.convR.ProcessBlock(s.inR[:frames], s.outR[:frames]); err != nil {
		return
	}
	for i := 0; i < frames; i++ {
		w := s.wet.next()
		buf[2*i] += s.outL[i] * w
		buf[2*i+1] += s.outR[i] * w
	}
}

func (s *ReverbStage) grow(frames int) {
	if cap(s.inL) < frames {
		s.inL = make([]float32, frames)
		s.inR = make([]float32, frames)
		s.outL = make([]float32, frames)
		s.outR = make([]float32, frames)
	}
	s.inL = s.inL[:frames]
	s.inR = s.inR[:frames]
	s.outL = s.outL[:frames]
	s.outR = s.outR[:frames]
}

func (s *ReverbStage) Reset() {
	s.convL.Reset()
	s.convR.Reset()
	s.wet.cur = 0
}
