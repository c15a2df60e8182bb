// Package arp implements the arpeggiator: a fixed-rate periodic task that
// retriggers notes from the currently held set. The 200ms step interval is
// deliberately independent of the sequencer tempo; the two run on separate
// clocks.
package arp

import (
	"sort"
	"sync"
	"time"

	"github.com/telleri/polysynth-go/internal/notes"
	"github.com/telleri/polysynth-go/internal/state"
)

// StepInterval is the fixed time between arpeggiator steps.
const StepInterval = 200 * time.Millisecond

// Trigger starts a note and returns its id; Stop cuts a note immediately.
// Both calls land on the note engine.
type Trigger func(note string) (id string, ok bool)
type Stop func(id string)

// Arpeggiator walks the held-note set on a fixed clock. All methods are
// safe to call from the UI goroutine; the tick runs on its own goroutine
// and synchronizes through the mutex.
type Arpeggiator struct {
	mu      sync.Mutex
	trigger Trigger
	stop    Stop
	dir     func() state.ArpDirection

	held    []string // sorted ascending by frequency
	cursor  int
	lastID  string
	running bool
	done    chan struct{}
}

// New wires the arpeggiator to the note engine. dir is read every tick so
// direction changes apply immediately.
func New(trigger Trigger, stop Stop, dir func() state.ArpDirection) *Arpeggiator {
	return &Arpeggiator{trigger: trigger, stop: stop, dir: dir}
}

// Start launches the tick loop. Starting clears any previously held notes.
func (a *Arpeggiator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.held = nil
	a.cursor = 0
	a.running = true
	a.done = make(chan struct{})
	go a.run(a.done)
}

// Stop cancels the tick loop, clears the held list, and cuts whatever note
// the arpeggiator last triggered. A tick in flight completes before the
// ticker is released; stopping never races a trigger.
func (a *Arpeggiator) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.done)
	a.held = nil
	last := a.lastID
	a.lastID = ""
	a.mu.Unlock()
	if last != "" {
		a.stop(last)
	}
}

// Running reports whether the tick loop is live.
func (a *Arpeggiator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Add registers a depressed key. The held list stays sorted ascending by
// pitch; duplicates are ignored.
func (a *Arpeggiator) Add(note string) {
	if !notes.Known(note) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range a.held {
		if n == note {
			return
		}
	}
	a.held = append(a.held, note)
	sort.Slice(a.held, func(i, j int) bool {
		fi, _ := notes.Frequency(a.held[i])
		fj, _ := notes.Frequency(a.held[j])
		return fi < fj
	})
}

// Remove drops a released key from the held list.
func (a *Arpeggiator) Remove(note string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, n := range a.held {
		if n == note {
			a.held = append(a.held[:i], a.held[i+1:]...)
			if a.cursor >= len(a.held) {
				a.cursor = 0
			}
			return
		}
	}
}

// Held returns a copy of the held list, low to high.
func (a *Arpeggiator) Held() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.held...)
}

func (a *Arpeggiator) run(done chan struct{}) {
	t := time.NewTicker(StepInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			a.tick()
		}
	}
}

// tick cuts the previous step's note, then triggers the next held note by
// cursor position: forward for up, backward for down, wrapping modulo the
// held count.
func (a *Arpeggiator) tick() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	last := a.lastID
	a.lastID = ""
	var next string
	if n := len(a.held); n > 0 {
		if a.cursor >= n {
			a.cursor = 0
		}
		idx := a.cursor
		if a.dir() == state.ArpDown {
			idx = n - 1 - a.cursor
		}
		next = a.held[idx]
		a.cursor = (a.cursor + 1) % n
	}
	a.mu.Unlock()

	if last != "" {
		a.stop(last)
	}
	if next != "" {
		if id, ok := a.trigger(next); ok {
			a.mu.Lock()
			if a.running {
				a.lastID = id
			} else {
				// Stopped while triggering; cut the orphan.
				a.mu.Unlock()
				a.stop(id)
				return
			}
			a.mu.Unlock()
		}
	}
}

// Tick advances one step synchronously. Exposed for deterministic tests;
// playback uses the internal ticker.
func (a *Arpeggiator) Tick() {
	a.tick()
}
