package notes

import (
	"math"
	"testing"
)

func TestFrequencyReferencePitches(t *testing.T) {
	cases := []struct {
		name string
		want float64
	}{
		{"A4", 440},
		{"A5", 880},
		{"A3", 220},
		{"C4", 261.6255653005986},
		{"C0", 16.351597831287414},
		{"B8", 7902.132820097988},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := Frequency(c.name)
			if !ok {
				t.Fatalf("%s not in table", c.name)
			}
			if math.Abs(got-c.want) > 1e-6 {
				t.Errorf("%s = %f, want %f", c.name, got, c.want)
			}
		})
	}
}

func TestUnknownNames(t *testing.T) {
	for _, name := range []string{"H4", "C9", "B-1", "", "c4", "C#"} {
		if Known(name) {
			t.Errorf("%q accepted", name)
		}
	}
}

func TestPitchClass(t *testing.T) {
	if got := PitchClass("F#3"); got != "F#" {
		t.Errorf("PitchClass(F#3) = %q", got)
	}
	if got := PitchClass("C4"); got != "C" {
		t.Errorf("PitchClass(C4) = %q", got)
	}
	if got := PitchClass("X9"); got != "" {
		t.Errorf("PitchClass(X9) = %q, want empty", got)
	}
}

func TestTransposeClampsToTableRange(t *testing.T) {
	if got := Transpose("C4", 1); got != "C5" {
		t.Errorf("up one octave: %s", got)
	}
	if got := Transpose("C4", -2); got != "C2" {
		t.Errorf("down two octaves: %s", got)
	}
	if got := Transpose("C8", 3); got != "C8" {
		t.Errorf("clamp high: %s", got)
	}
	if got := Transpose("C0", -1); got != "C0" {
		t.Errorf("clamp low: %s", got)
	}
	if got := Transpose("bogus", 1); got != "bogus" {
		t.Errorf("unknown name changed: %s", got)
	}
}

func TestKeyMapTargetsAreValidNotes(t *testing.T) {
	for key, note := range KeyMap {
		if !Known(note) {
			t.Errorf("key %q maps to unknown note %q", key, note)
		}
	}
}

func TestPeakGainFallsBackToSine(t *testing.T) {
	if PeakGain("square") >= PeakGain("sine") {
		t.Error("square should be normalized below sine")
	}
	if PeakGain("nope") != PeakGain("sine") {
		t.Error("unknown waveform should use the sine constant")
	}
}
