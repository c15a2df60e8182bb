// Package scope is the analysis tap behind the oscilloscope display: a
// mono ring buffer fed from the audio thread, snapshotted by the UI.
package scope

import "sync"

const ringLen = 32768

// Tap accumulates the rendered output. Writes come from the audio
// goroutine, reads from the UI goroutine.
type Tap struct {
	mu       sync.Mutex
	ring     [ringLen]float32
	writePos int
	total    int64
}

func NewTap() *Tap {
	return &Tap{}
}

// Feed downmixes an interleaved stereo block into the ring. Called from
// the audio thread; just a copy, nothing heavier.
func (t *Tap) Feed(samples []float32) {
	t.mu.Lock()
	for i := 0; i+1 < len(samples); i += 2 {
		t.ring[t.writePos] = (samples[i] + samples[i+1]) * 0.5
		t.writePos = (t.writePos + 1) % ringLen
		t.total++
	}
	t.mu.Unlock()
}

// Snapshot copies the most recent n mono samples, oldest first. Before n
// samples have been fed the missing prefix is zero.
func (t *Tap) Snapshot(n int) []float32 {
	if n <= 0 {
		return nil
	}
	if n > ringLen {
		n = ringLen
	}
	out := make([]float32, n)
	t.mu.Lock()
	start := (t.writePos - n + ringLen*2) % ringLen
	for i := 0; i < n; i++ {
		out[i] = t.ring[(start+i)%ringLen]
	}
	t.mu.Unlock()
	return out
}

// Total reports how many mono samples have been fed since construction.
func (t *Tap) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}
