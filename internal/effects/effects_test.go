package effects

import (
	"math"
	"testing"
)

func impulseBlock(frames int) []float32 {
	buf := make([]float32, frames*2)
	buf[0], buf[1] = 1, 1
	return buf
}

func TestWetGainRampsSmoothly(t *testing.T) {
	w := newWetGain(48000)
	w.setTarget(0.3)
	prev := float32(0)
	for i := 0; i < 4800; i++ {
		v := w.next()
		if v < prev {
			t.Fatalf("wet gain not monotonic at %d: %f < %f", i, v, prev)
		}
		if step := v - prev; step > 0.01 {
			t.Fatalf("wet gain jumped by %f at %d", step, i)
		}
		prev = v
	}
	// One time constant is 0.1s = 4800 samples; should be ~63% of target.
	if prev < 0.15 || prev > 0.3 {
		t.Errorf("after 1 tau, wet=%f, want between 0.15 and 0.3", prev)
	}
}

func TestDelayStageProducesDelayedTap(t *testing.T) {
	sr := 48000
	s := NewDelayStage(sr)
	s.wet.setTarget(0.25)
	s.wet.cur = 0.25 // skip the ramp for the assertion

	tap := int(delaySeconds * float64(sr))
	buf := impulseBlock(tap + 10)
	s.Process(buf)

	if math.Abs(float64(buf[2*tap])-0.25) > 0.02 {
		t.Errorf("expected delayed tap ~0.25 at frame %d, got %f", tap, buf[2*tap])
	}
	// Dry path untouched.
	if buf[0] != 1 {
		t.Errorf("dry sample modified: %f", buf[0])
	}
}

func TestDelayStageSilentWhenOff(t *testing.T) {
	s := NewDelayStage(48000)
	buf := impulseBlock(100)
	s.Process(buf)
	for i := 2; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("disabled delay wrote at %d: %f", i, buf[i])
		}
	}
}

func TestDistortionCurveShape(t *testing.T) {
	s := NewDistortionStage(48000)
	// f(0) = 0, odd symmetry, bounded.
	if v := s.shape(0); math.Abs(float64(v)) > 1e-3 {
		t.Errorf("curve at 0: %f", v)
	}
	if v := s.shape(0.5) + s.shape(-0.5); math.Abs(float64(v)) > 1e-3 {
		t.Errorf("curve not odd: %f", v)
	}
	for _, x := range []float32{-1, -0.5, 0.25, 1} {
		if v := s.shape(x); math.Abs(float64(v)) > 1.5 {
			t.Errorf("curve unbounded at %f: %f", x, v)
		}
	}
}

func TestDistortionStageAddsWetSignal(t *testing.T) {
	s := NewDistortionStage(48000)
	s.wet.setTarget(0.6)
	s.wet.cur = 0.6
	buf := make([]float32, 4)
	buf[0], buf[1] = 0.5, 0.5
	s.Process(buf)
	want := 0.5 + s.shape(0.5)*0.6
	if math.Abs(float64(buf[0]-want)) > 1e-4 {
		t.Errorf("got %f, want %f", buf[0], want)
	}
}

func TestReverbStageProducesTail(t *testing.T) {
	s, err := NewReverbStage(8000) // small rate keeps the IR cheap
	if err != nil {
		t.Fatal(err)
	}
	s.wet.setTarget(0.3)
	s.wet.cur = 0.3
	buf := impulseBlock(4096)
	s.Process(buf)
	var energy float64
	// Look past the convolver latency and the dry impulse.
	for i := 2; i < len(buf); i++ {
		energy += math.Abs(float64(buf[i]))
	}
	if energy < 0.01 {
		t.Errorf("expected reverb tail energy, got %f", energy)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c := NewCompressor(48000, -10, 4, 1, 50, 0)
	buf := make([]float32, 2000)
	for i := range buf {
		buf[i] = 1.0
	}
	c.Process(buf)
	if out := buf[len(buf)-2]; out >= 1.0 {
		t.Errorf("expected gain reduction, got %f", out)
	}
}

func TestChainToggleStates(t *testing.T) {
	c, err := NewChain(8000)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []Kind{Reverb, Delay, Distortion} {
		if c.Enabled(k) {
			t.Errorf("%s enabled at start", k)
		}
		if on := c.Toggle(k); !on {
			t.Errorf("first toggle of %s returned off", k)
		}
		if on := c.Toggle(k); on {
			t.Errorf("second toggle of %s returned on", k)
		}
	}
}

func TestChainProcessesWhenAllOff(t *testing.T) {
	c, err := NewChain(8000)
	if err != nil {
		t.Fatal(err)
	}
	buf := impulseBlock(256)
	c.Process(buf)
	// With every stage off the dry path passes through the compressor only;
	// a single impulse stays roughly intact.
	if buf[0] < 0.5 {
		t.Errorf("dry impulse crushed to %f", buf[0])
	}
}

func TestChainToggleDuringProcess(t *testing.T) {
	c, err := NewChain(8000)
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]float32, 512)
		for i := 0; i < 200; i++ {
			buf[0], buf[1] = 0.5, 0.5
			c.Process(buf)
		}
	}()
	for i := 0; i < 200; i++ {
		c.SetEnabled(Delay, i%2 == 0)
		c.SetEnabled(Distortion, i%2 == 1)
		c.SetEnabled(Reverb, i%3 == 0)
	}
	<-done
}

func TestEQ5BandUnityGainPassthrough(t *testing.T) {
	eq := NewEQ5Band(44100)
	buf := make([]float32, 2000)
	for i := range buf {
		buf[i] = 0.5
	}
	eq.Process(buf)
	l := buf[len(buf)-2]
	if math.Abs(float64(l)-0.5) > 0.1 {
		t.Errorf("expected ~0.5 with unity gains, got %f", l)
	}
}

func TestEQ5BandKillLowBand(t *testing.T) {
	eq := NewEQ5Band(44100)
	eq.SetGain(0, 0)
	buf := make([]float32, 8000)
	for i := range buf {
		buf[i] = 0.5 // DC sits entirely in band 0
	}
	eq.Process(buf)
	if out := buf[len(buf)-2]; math.Abs(float64(out)) > 0.1 {
		t.Errorf("expected DC removed, got %f", out)
	}
}
