package polysynth

// RenderSamples renders the next `seconds` of output through the full
// pipeline (engine mix, effects bus, master EQ) without an audio backend.
// Interleaved stereo float32. Used by tests and the CLI's audition mode;
// real playback always goes through InitAudioEngine.
func (s *Synth) RenderSamples(seconds float64) []float32 {
	frames := int(float64(s.sampleRate) * seconds)
	if frames <= 0 {
		return nil
	}
	out := make([]float32, frames*2)
	sink := renderSink{s: s}
	// Pull in stream-sized blocks rather than one giant buffer.
	const block = 1024
	for off := 0; off < len(out); off += block {
		end := off + block
		if end > len(out) {
			end = len(out)
		}
		sink.Process(out[off:end])
	}
	return out
}
