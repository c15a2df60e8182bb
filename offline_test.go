package polysynth

import (
	"math"
	"testing"
)

func TestRenderSamplesProducesSignal(t *testing.T) {
	s := newTestSynth(t)
	if _, ok := s.PlayNote("A4"); !ok {
		t.Fatal("note rejected")
	}
	out := s.RenderSamples(0.25)
	wantLen := int(testRate*0.25) * 2
	if len(out) != wantLen {
		t.Fatalf("rendered %d samples, want %d", len(out), wantLen)
	}
	var peak float64
	for _, v := range out {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	if peak < 0.001 {
		t.Error("render produced silence")
	}
	if peak > 1 {
		t.Errorf("render exceeded full scale: %f", peak)
	}
}

func TestRenderSamplesSilentWhenIdle(t *testing.T) {
	s := newTestSynth(t)
	out := s.RenderSamples(0.05)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("idle render nonzero at %d: %f", i, v)
		}
	}
}

func TestRenderSamplesZeroDuration(t *testing.T) {
	s := newTestSynth(t)
	if out := s.RenderSamples(0); out != nil {
		t.Errorf("zero-duration render returned %d samples", len(out))
	}
}
