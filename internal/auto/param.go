// Package auto implements an audio-clock automation timeline for a single
// scalar parameter: scheduled set points and exponential ramps evaluated at
// arbitrary times. The note engine schedules envelopes on it the same way
// the sequencer schedules note-offs: everything is a future timestamp on the
// sample clock, nothing is awaited.
package auto

import "math"

type eventKind int

const (
	kindSetValue eventKind = iota
	kindExpRamp
)

type event struct {
	kind  eventKind
	time  float64
	value float64
}

// Param is a parameter value with scheduled automation. The zero value is
// usable; its value is 0 until the first event. Not safe for concurrent use;
// callers serialize through the engine lock.
type Param struct {
	events []event
}

// SetValueAtTime schedules an instantaneous jump to v at time t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.append(event{kind: kindSetValue, time: t, value: v})
}

// ExponentialRampToValueAtTime schedules an exponential glide ending at v at
// time t, starting from the previous event's value and time. Both endpoint
// values must be non-zero for the curve to be defined; callers enforce the
// silence floor.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) {
	p.append(event{kind: kindExpRamp, time: t, value: v})
}

// CancelScheduledValues discards every event scheduled at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	for i, ev := range p.events {
		if ev.time >= t {
			p.events = p.events[:i]
			return
		}
	}
}

func (p *Param) append(ev event) {
	// Events arrive in increasing time order within a call chain; an
	// out-of-order schedule replaces everything it would overlap.
	for len(p.events) > 0 && p.events[len(p.events)-1].time > ev.time {
		p.events = p.events[:len(p.events)-1]
	}
	p.events = append(p.events, ev)
}

// ValueAt evaluates the timeline at time t.
func (p *Param) ValueAt(t float64) float64 {
	if len(p.events) == 0 {
		return 0
	}
	if t < p.events[0].time {
		// Before the first event the timeline holds its first set point;
		// a leading ramp glides from that same value.
		return p.events[0].value
	}
	// Find the last event at or before t.
	i := len(p.events) - 1
	for i > 0 && p.events[i].time > t {
		i--
	}
	cur := p.events[i]
	if cur.time <= t {
		if i+1 < len(p.events) && p.events[i+1].kind == kindExpRamp {
			return expInterp(cur, p.events[i+1], t)
		}
		return cur.value
	}
	// t lies before events[i] but after events[i-1]: only possible when
	// i == 0, handled above.
	return cur.value
}

// LastScheduledValue returns the value the timeline settles at after all
// events have fired (the sustain hold value), or 0 with no events.
func (p *Param) LastScheduledValue() float64 {
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].value
}

// LastScheduledTime returns the timestamp of the final event, or 0.
func (p *Param) LastScheduledTime() float64 {
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].time
}

func expInterp(from, to event, t float64) float64 {
	if to.time <= from.time {
		return to.value
	}
	v0, v1 := from.value, to.value
	if v0 == 0 || (v0 < 0) != (v1 < 0) {
		// Undefined exponential; fall back to the endpoint.
		return v1
	}
	frac := (t - from.time) / (to.time - from.time)
	return v0 * math.Pow(v1/v0, frac)
}
