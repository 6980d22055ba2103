// Package transmitter implements the square-wave burst generator feeding the
// handheld's emitter pin.
//
// The state machine is externally clocked: an interrupt handler or a polling
// loop calls Tick at a fixed cadence and the machine performs at most one
// state transition and one pin write per call. It owns no goroutines, timers
// or channels. It is not reentrant: Tick must be invoked from exactly one
// execution context, and configuration must be mutated from that same
// context (or with external synchronisation).
package transmitter

import (
	"lasertag-go/errcode"
)

// OutputPin is the write-only capability the transmitter drives. The HAL
// GPIO handles satisfy it.
type OutputPin interface {
	Set(level bool)
}

// debugSink is optionally implemented by pins that can trace writes.
type debugSink interface {
	SetDebug(on bool)
}

// Emitted logic levels.
const (
	highLevel = true
	lowLevel  = false
)

// DefaultPulseWidth is the stock burst length: 200 ms at DefaultTickRateHz.
const DefaultPulseWidth uint32 = 20_000

type state uint8

const (
	stInit state = iota
	stIdle
	stHigh
	stLow
)

// Transmitter is one instance of the burst generator. Instances are
// independent; tests and multi-emitter boards create as many as they need.
type Transmitter struct {
	table Table
	pin   OutputPin

	st          state
	signalTimer uint32 // ticks since the current burst began
	period      uint16 // cycle length latched at burst start

	runReq bool // pending run request, consumed at the idle transition
	active bool // burst in progress

	continuous bool
	debug      bool
	frequency  int
	pulseWidth uint32
}

// New returns a transmitter over the given table and pin, configured for
// channel 0, one-shot mode and the stock pulse width. Call Init before the
// first Tick.
func New(table Table, pin OutputPin) *Transmitter {
	return &Transmitter{
		table:      table,
		pin:        pin,
		pulseWidth: DefaultPulseWidth,
	}
}

// Init resets the machine: state back to the initial transient, timer
// cleared, any pending run request dropped, period latched for the current
// frequency and the pin driven low. Safe to call at any time, including
// mid-burst, to force a full reset.
func (t *Transmitter) Init() {
	t.st = stInit
	t.signalTimer = 0
	t.runReq = false
	t.active = false
	t.period = t.table.Period(t.frequency)

	if d, ok := t.pin.(debugSink); ok {
		d.SetDebug(t.debug)
	}
	t.pin.Set(lowLevel)
}

// Tick advances the machine by one tick: transition first, then the
// state-dependent timer update. O(1), no allocation, at most one pin write.
func (t *Transmitter) Tick() {
	// Transition logic.
	switch t.st {
	case stInit:
		t.st = stIdle

	case stIdle:
		if t.runReq {
			if !t.continuous {
				t.runReq = false // one burst per request
			}
			// Latch the most recent channel selection; it stays frozen
			// until the burst completes.
			t.period = t.table.Period(t.frequency)
			t.signalTimer = 0
			t.active = true
			t.pin.Set(highLevel)
			t.st = stHigh
		}

	case stHigh:
		// Stay high for the first half of the cycle.
		if t.signalTimer%uint32(t.period) > uint32(t.period)/2 {
			t.st = stLow
			t.pin.Set(lowLevel)
		}

	case stLow:
		if t.signalTimer > t.pulseWidth {
			// Full burst sent. In continuous mode the pending request
			// re-arms on the next tick with only this one-tick gap.
			t.st = stIdle
			t.active = t.runReq
		} else if t.signalTimer%uint32(t.period) < uint32(t.period)/2 {
			// Back high for the next cycle. The strict comparison keeps
			// the boundary tick in the current state; with the modulo a
			// skipped compare value cannot wedge the machine.
			t.st = stHigh
			t.pin.Set(highLevel)
		}
	}

	// Action logic.
	switch t.st {
	case stHigh, stLow:
		t.signalTimer++
	}
}

// Run requests a transmission. The request is consumed at the next idle
// tick; calling again while pending or mid-burst queues nothing extra.
func (t *Transmitter) Run() { t.runReq = true }

// Running reports whether a burst is in progress, from the idle-to-high
// transition until the burst completes. Once started in continuous mode it
// stays true until the mode is switched off and the final burst drains.
func (t *Transmitter) Running() bool { return t.active }

// SetFrequencyNumber selects the transmit channel. An index outside the
// table is rejected and the current selection kept. Changing the channel
// mid-burst is allowed; it takes effect when the next burst latches.
func (t *Transmitter) SetFrequencyNumber(n int) error {
	if !t.table.Valid(n) {
		return errcode.InvalidFrequency
	}
	t.frequency = n
	return nil
}

// FrequencyNumber returns the current channel selection.
func (t *Transmitter) FrequencyNumber() int { return t.frequency }

// SetPulseWidth sets the burst length in ticks. Zero is rejected: the
// burst-complete guard could never fire and the machine would oscillate
// forever.
func (t *Transmitter) SetPulseWidth(width uint32) error {
	if width == 0 {
		return errcode.InvalidPulseWidth
	}
	t.pulseWidth = width
	return nil
}

// PulseWidth returns the configured burst length in ticks.
func (t *Transmitter) PulseWidth() uint32 { return t.pulseWidth }

// SetContinuousMode switches between one-shot and continuous operation.
// Turning it off mid-run lets the in-flight burst finish rather than
// chopping the waveform.
func (t *Transmitter) SetContinuousMode(on bool) { t.continuous = on }

// ContinuousMode returns the current mode.
func (t *Transmitter) ContinuousMode() bool { return t.continuous }

// SetDebug forwards the debug flag to the pin when it supports tracing.
// It has no effect on the waveform.
func (t *Transmitter) SetDebug(on bool) {
	t.debug = on
	if d, ok := t.pin.(debugSink); ok {
		d.SetDebug(on)
	}
}
