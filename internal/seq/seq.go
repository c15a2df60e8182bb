// Package seq implements the 16-step sequencer: a tempo-derived periodic
// task that retriggers the last-played note on enabled steps. The pattern
// is a plain boolean array the UI mutates directly by index.
package seq

import (
	"sync"
	"time"
)

// Steps is the fixed pattern length: one bar of 16th notes.
const Steps = 16

// Trigger fires a note for a fixed duration in seconds.
type Trigger func(duration float64)

// Sequencer drives the pattern on the UI-timer clock; the triggered notes
// themselves are scheduled by the engine on the audio clock.
type Sequencer struct {
	mu      sync.Mutex
	pattern [Steps]bool
	cursor  int
	tempo   float64
	trigger Trigger
	onStep  func(step int, playing bool)
	running bool
	done    chan struct{}
}

// New builds a sequencer at the given tempo. onStep reports the cursor for
// the UI's step markers and may be nil.
func New(tempo float64, trigger Trigger, onStep func(step int, playing bool)) *Sequencer {
	if tempo <= 0 {
		tempo = 120
	}
	return &Sequencer{tempo: tempo, trigger: trigger, onStep: onStep}
}

// Interval returns the current tick interval: a 16th note at the
// configured tempo.
func (s *Sequencer) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval()
}

func (s *Sequencer) interval() time.Duration {
	return time.Duration(60 / s.tempo / 4 * float64(time.Second))
}

// noteDuration is the fixed trigger length: an eighth note.
func (s *Sequencer) noteDuration() float64 {
	return 60 / s.tempo / 2
}

// SetTempo changes the BPM. Takes effect on the next tick; the running
// ticker is rebuilt by the loop.
func (s *Sequencer) SetTempo(tempo float64) {
	if tempo <= 0 {
		return
	}
	s.mu.Lock()
	s.tempo = tempo
	s.mu.Unlock()
}

// Tempo returns the configured BPM.
func (s *Sequencer) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// ToggleStep flips one pattern step and returns its new state. Out-of-range
// indices are ignored.
func (s *Sequencer) ToggleStep(i int) bool {
	if i < 0 || i >= Steps {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern[i] = !s.pattern[i]
	return s.pattern[i]
}

// SetStep writes one pattern step.
func (s *Sequencer) SetStep(i int, on bool) {
	if i < 0 || i >= Steps {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern[i] = on
}

// Pattern returns a snapshot of all 16 steps.
func (s *Sequencer) Pattern() [Steps]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

// SetPattern replaces the whole pattern, used by preset load.
func (s *Sequencer) SetPattern(p [Steps]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pattern = p
}

// Start launches the tick loop from step 0.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cursor = 0
	s.running = true
	s.done = make(chan struct{})
	go s.run(s.done)
}

// Stop cancels the tick loop and clears the playing markers. The pattern
// itself is untouched.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	onStep := s.onStep
	s.mu.Unlock()
	if onStep != nil {
		onStep(-1, false)
	}
}

// Running reports whether the tick loop is live.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sequencer) run(done chan struct{}) {
	t := time.NewTicker(s.Interval())
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			s.Tick()
			// Tempo changes land between ticks.
			t.Reset(s.Interval())
		}
	}
}

// Tick advances the cursor one step (wrapping), reports it to the UI, and
// triggers when the step is enabled. Exposed for deterministic tests.
func (s *Sequencer) Tick() {
	s.mu.Lock()
	step := s.cursor
	s.cursor = (s.cursor + 1) % Steps
	playing := s.pattern[step]
	dur := s.noteDuration()
	trigger := s.trigger
	onStep := s.onStep
	s.mu.Unlock()

	if onStep != nil {
		onStep(step, playing)
	}
	if playing && trigger != nil {
		trigger(dur)
	}
}
