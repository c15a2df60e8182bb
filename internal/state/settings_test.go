package state

import (
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	st := Defaults()
	if st.Engine != Subtractive {
		t.Errorf("default engine %v", st.Engine)
	}
	if st.Sub.Waveform != "sine" {
		t.Errorf("default waveform %q", st.Sub.Waveform)
	}
	want := ADSR{Attack: 0.02, Decay: 0.1, Sustain: 0.8, Release: 0.5}
	if st.Sub.Env != want {
		t.Errorf("default envelope %+v", st.Sub.Env)
	}
	if st.Global.Polyphony != 8 || st.Global.Tempo != 120 {
		t.Errorf("default globals %+v", st.Global)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := Defaults()
	b := a.Clone()
	if !reflect.DeepEqual(a, b) {
		t.Fatal("clone differs from source")
	}
	b.Global.Cutoff = 99
	b.FM.Ratio = 7
	if a.Global.Cutoff == 99 || a.FM.Ratio == 7 {
		t.Error("clone shares state with source")
	}
}

func TestEnvAndOctaveFollowActiveEngine(t *testing.T) {
	st := Defaults()
	st.Sub.Octave = 1
	st.FM.Octave = -1
	if st.Env() != st.Sub.Env || st.Octave() != 1 {
		t.Error("subtractive engine should expose Sub block")
	}
	st.Engine = FM
	if st.Env() != st.FM.Env || st.Octave() != -1 {
		t.Error("FM engine should expose FM block")
	}
}

func TestEngineKindString(t *testing.T) {
	cases := map[EngineKind]string{
		Subtractive: "subtractive",
		FM:          "fm",
		Drum:        "drum",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
