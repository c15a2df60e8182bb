// Package notes holds the static pitch and normalization tables shared by
// the engine and the UI binaries.
package notes

import (
	"math"
	"strconv"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// freqTable maps note names ("C0".."B8") to equal-temperament frequencies,
// A4 = 440 Hz.
var freqTable = buildFreqTable()

func buildFreqTable() map[string]float64 {
	t := make(map[string]float64, 12*9)
	for octave := 0; octave <= 8; octave++ {
		for pc := 0; pc < 12; pc++ {
			// MIDI number: C0 = 12, A4 = 69.
			midi := 12 + octave*12 + pc
			name := noteNames[pc] + strconv.Itoa(octave)
			t[name] = 440 * math.Pow(2, float64(midi-69)/12)
		}
	}
	return t
}

// Frequency returns the frequency in Hz for a note name like "C4" or "F#3".
// The second return is false for names outside C0..B8.
func Frequency(name string) (float64, bool) {
	f, ok := freqTable[name]
	return f, ok
}

// Known reports whether name is a recognized note name.
func Known(name string) bool {
	_, ok := freqTable[name]
	return ok
}

// PitchClass returns the note name with the octave digit stripped
// ("F#3" -> "F#"). Returns "" for unrecognized names.
func PitchClass(name string) string {
	if !Known(name) {
		return ""
	}
	i := len(name) - 1
	for i > 0 && name[i] >= '0' && name[i] <= '9' {
		i--
	}
	return name[:i+1]
}

// Transpose shifts a note name by whole octaves, clamping to the table range.
// Unknown names are returned unchanged.
func Transpose(name string, octaves int) string {
	if octaves == 0 || !Known(name) {
		return name
	}
	i := len(name) - 1
	for i > 0 && name[i] >= '0' && name[i] <= '9' {
		i--
	}
	pc := name[:i+1]
	oct, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return name
	}
	oct += octaves
	if oct < 0 {
		oct = 0
	}
	if oct > 8 {
		oct = 8
	}
	return pc + strconv.Itoa(oct)
}

// KeyMap is the physical-keyboard layout used by the UI binaries: the home
// row plays white keys from C4, the row above plays the black keys.
var KeyMap = map[string]string{
	"a": "C4", "w": "C#4", "s": "D4", "e": "D#4", "d": "E4",
	"f": "F4", "t": "F#4", "g": "G4", "y": "G#4", "h": "A4",
	"u": "A#4", "j": "B4", "k": "C5", "o": "C#5", "l": "D5",
	"p": "D#5", ";": "E5",
}

// peakGain normalizes perceived loudness across waveforms: harmonically rich
// shapes carry far more energy than a sine at the same amplitude.
var peakGain = map[string]float64{
	"sine":     0.40,
	"square":   0.17,
	"sawtooth": 0.22,
	"triangle": 0.33,
}

// PeakGain returns the envelope peak for a waveform name. Unknown waveforms
// get the sine normalization.
func PeakGain(waveform string) float64 {
	if g, ok := peakGain[waveform]; ok {
		return g
	}
	return peakGain["sine"]
}

// Waveforms lists the selectable oscillator shapes in panel order.
var Waveforms = []string{"sine", "square", "sawtooth", "triangle"}
