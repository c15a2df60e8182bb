package drums

import (
	"math"
	"testing"
)

func TestForNoteMapsWholeOctave(t *testing.T) {
	for _, tc := range []struct {
		note string
		want Instrument
	}{
		{"C4", Kick},
		{"D4", Snare},
		{"E4", HatClosed},
		{"F4", HatOpen},
		{"G4", Tom},
		{"A4", Clap},
		{"B4", Cymbal},
		{"C#4", Cowbell},
		{"C2", Kick}, // pitch class, not a fixed octave
	} {
		got, ok := ForNote(tc.note)
		if !ok || got != tc.want {
			t.Errorf("ForNote(%s) = %v, %v; want %v", tc.note, got, ok, tc.want)
		}
	}
	if _, ok := ForNote("H4"); ok {
		t.Error("unknown note mapped to an instrument")
	}
}

func TestTriggerProducesSignalAndDies(t *testing.T) {
	sr := 8000
	for _, inst := range []Instrument{Kick, Snare, HatClosed, HatOpen, Tom, Clap, Cymbal, Cowbell} {
		t.Run(string(inst), func(t *testing.T) {
			b := NewBank(sr)
			b.Trigger(inst, Params{Tune: 0.5, Decay: 0.3, Tone: 0.5}, 0)
			if b.Active() != 1 {
				t.Fatalf("expected 1 voice, got %d", b.Active())
			}
			var peak float64
			for i := 0; i < sr*3; i++ {
				if a := math.Abs(b.Render()); a > peak {
					peak = a
				}
				if b.Active() == 0 {
					break
				}
			}
			if peak < 0.01 {
				t.Errorf("%s produced no signal (peak %f)", inst, peak)
			}
			if b.Active() != 0 {
				t.Errorf("%s never finished", inst)
			}
		})
	}
}

func TestDecayKnobStretchesLifetime(t *testing.T) {
	sr := 8000
	life := func(decay float64) int {
		b := NewBank(sr)
		b.Trigger(Kick, Params{Tune: 0.5, Decay: decay, Tone: 0.5}, 0)
		n := 0
		for b.Active() > 0 && n < sr*5 {
			b.Render()
			n++
		}
		return n
	}
	short := life(0.0)
	long := life(1.0)
	if long <= short {
		t.Errorf("decay=1 lifetime (%d) not longer than decay=0 (%d)", long, short)
	}
}

func TestLastHitRecorded(t *testing.T) {
	b := NewBank(8000)
	if _, ok := b.LastHit(); ok {
		t.Error("fresh bank reports a hit")
	}
	b.Trigger(Snare, Params{}, 1.25)
	hit, ok := b.LastHit()
	if !ok || hit.Instrument != Snare || hit.Time != 1.25 {
		t.Errorf("unexpected last hit: %+v, %v", hit, ok)
	}
}

func TestKitParamsFallback(t *testing.T) {
	if p := KitParams("nope"); p != Kits["analog"] {
		t.Errorf("unknown kit did not fall back: %+v", p)
	}
	for _, name := range KitNames {
		if _, ok := Kits[name]; !ok {
			t.Errorf("kit %s listed but not defined", name)
		}
	}
}
