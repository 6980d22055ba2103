package transmitter

import (
	"testing"

	"lasertag-go/errcode"
)

// fakePin records every write so tests can reconstruct the waveform.
type fakePin struct {
	level  bool
	writes []bool
	debug  bool
}

func (p *fakePin) Set(level bool)   { p.level = level; p.writes = append(p.writes, level) }
func (p *fakePin) SetDebug(on bool) { p.debug = on }

// newIdle returns a machine ticked past the initial transient, plus its pin.
func newIdle(t *testing.T, periods []uint16) (*Transmitter, *fakePin) {
	t.Helper()
	table, err := NewTable(periods)
	if err != nil {
		t.Fatalf("NewTable(%v): %v", periods, err)
	}
	pin := &fakePin{}
	tx := New(table, pin)
	tx.Init()
	tx.Tick() // leave the init state
	pin.writes = nil
	return tx, pin
}

type pinWrite struct {
	tick  int
	level bool
}

// run ticks n times and returns each write tagged with its tick number
// (1-based from this call).
func run(tx *Transmitter, pin *fakePin, n int) []pinWrite {
	var events []pinWrite
	seen := len(pin.writes)
	for i := 1; i <= n; i++ {
		tx.Tick()
		for ; seen < len(pin.writes); seen++ {
			events = append(events, pinWrite{tick: i, level: pin.writes[seen]})
		}
	}
	return events
}

func TestInitDrivesPinLow(t *testing.T) {
	table, _ := NewTable([]uint16{10})
	pin := &fakePin{level: true}
	tx := New(table, pin)
	tx.Init()
	if pin.level != false {
		t.Fatal("pin not driven low by Init")
	}
	if tx.Running() {
		t.Fatal("Running true after Init")
	}
	// Idempotent: a second Init is a no-op apart from the pin write.
	tx.Init()
	if pin.level != false || tx.Running() {
		t.Fatal("second Init changed observable state")
	}
}

func TestOneShotBurst(t *testing.T) {
	tx, pin := newIdle(t, []uint16{10})
	if err := tx.SetPulseWidth(25); err != nil {
		t.Fatalf("SetPulseWidth: %v", err)
	}

	tx.Run()
	got := run(tx, pin, 28)

	want := []pinWrite{
		{1, true},   // burst start
		{7, false},  // half cycle done once the timer passes 5
		{11, true},  // next cycle
		{17, false},
		{21, true},
		{27, false}, // final half cycle
	}
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if tx.Running() {
		t.Fatal("Running still true after burst drained")
	}

	// No further writes and no restart without a fresh request.
	if extra := run(tx, pin, 50); len(extra) != 0 {
		t.Fatalf("unexpected writes after burst: %v", extra)
	}
	if tx.Running() {
		t.Fatal("Running came back without a request")
	}
}

func TestRunningSpansWholeBurst(t *testing.T) {
	tx, _ := newIdle(t, []uint16{10})
	_ = tx.SetPulseWidth(25)

	if tx.Running() {
		t.Fatal("Running true before request")
	}
	tx.Run()
	if tx.Running() {
		t.Fatal("Running true before the request was consumed")
	}
	for i := 1; i <= 27; i++ {
		tx.Tick()
		if !tx.Running() {
			t.Fatalf("Running false at tick %d, mid-burst", i)
		}
	}
	tx.Tick() // burst-complete transition
	if tx.Running() {
		t.Fatal("Running true after completion")
	}
}

func TestContinuousReArm(t *testing.T) {
	tx, pin := newIdle(t, []uint16{10})
	_ = tx.SetPulseWidth(25)
	tx.SetContinuousMode(true)

	tx.Run()
	for i := 1; i <= 28; i++ {
		tx.Tick()
		if i >= 1 && !tx.Running() {
			t.Fatalf("Running false at tick %d in continuous mode", i)
		}
	}

	// Tick 28 completed the first burst; the very next tick starts a new
	// one with a fresh timer.
	before := len(pin.writes)
	tx.Tick()
	if !tx.Running() {
		t.Fatal("Running dropped across the burst boundary")
	}
	if len(pin.writes) != before+1 || pin.writes[before] != true {
		t.Fatal("new burst did not start on the tick after completion")
	}
}

func TestContinuousStopsAfterModeOff(t *testing.T) {
	tx, _ := newIdle(t, []uint16{4})
	_ = tx.SetPulseWidth(8)
	tx.SetContinuousMode(true)
	tx.Run()

	for i := 0; i < 20; i++ {
		tx.Tick()
	}
	if !tx.Running() {
		t.Fatal("Running false while continuous")
	}

	tx.SetContinuousMode(false)
	// The in-flight burst and the one already re-armed drain, then it stops.
	for i := 0; i < 40; i++ {
		tx.Tick()
	}
	if tx.Running() {
		t.Fatal("Running true long after continuous mode was switched off")
	}
}

func TestFrequencyFrozenMidBurst(t *testing.T) {
	tx, pin := newIdle(t, []uint16{10, 4})
	_ = tx.SetPulseWidth(25)

	tx.Run()
	run(tx, pin, 3)
	if err := tx.SetFrequencyNumber(1); err != nil {
		t.Fatalf("SetFrequencyNumber: %v", err)
	}

	// The rest of the burst still runs at period 10: the first low edge
	// arrives at tick 7, not at the period-4 cadence.
	got := run(tx, pin, 24)
	want := []pinWrite{{4, false}, {8, true}, {14, false}, {18, true}, {24, false}}
	if len(got) != len(want) {
		t.Fatalf("writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Next burst latches the new channel.
	tx.Tick() // burst-complete transition
	tx.Run()
	got = run(tx, pin, 8)
	// Period 4: high on tick 1, low once the timer passes 2.
	want = []pinWrite{{1, true}, {4, false}, {5, true}, {8, false}}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("period-4 burst writes = %v, want %v", got, want)
		}
	}
	if tx.FrequencyNumber() != 1 {
		t.Fatalf("FrequencyNumber = %d, want 1", tx.FrequencyNumber())
	}
}

func TestDutyCycleBounds(t *testing.T) {
	for _, period := range []uint16{4, 5, 10, 24, 68} {
		tx, pin := newIdle(t, []uint16{period})
		_ = tx.SetPulseWidth(uint32(period) * 6)
		tx.Run()

		// Sample the pin level tick by tick for the whole burst.
		var levels []bool
		for i := 0; i < int(period)*8; i++ {
			tx.Tick()
			levels = append(levels, pin.level)
			if !tx.Running() {
				break
			}
		}

		p := int(period)
		lo, hi := p/2, (p+1)/2+1
		runLen := 0
		for i, lvl := range levels {
			if lvl {
				runLen++
				continue
			}
			if runLen > 0 {
				last := i == len(levels)-1
				if runLen < lo && !last {
					t.Errorf("period %d: high run of %d ticks, want >= %d", period, runLen, lo)
				}
				if runLen > hi {
					t.Errorf("period %d: high run of %d ticks, want <= %d", period, runLen, hi)
				}
			}
			runLen = 0
		}
	}
}

func TestDeterminism(t *testing.T) {
	trace := func() []pinWrite {
		tx, pin := newIdle(t, []uint16{10, 4})
		_ = tx.SetPulseWidth(25)
		tx.Run()
		events := run(tx, pin, 10)
		_ = tx.SetFrequencyNumber(1)
		events = append(events, run(tx, pin, 40)...)
		tx.Run()
		return append(events, run(tx, pin, 20)...)
	}

	a, b := trace(), trace()
	if len(a) != len(b) {
		t.Fatalf("traces differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("traces diverge at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestRejectsBadFrequency(t *testing.T) {
	tx, _ := newIdle(t, []uint16{10, 20})

	for _, n := range []int{-1, 2, 99} {
		if err := tx.SetFrequencyNumber(n); err != errcode.InvalidFrequency {
			t.Errorf("SetFrequencyNumber(%d) = %v, want %v", n, err, errcode.InvalidFrequency)
		}
	}
	if tx.FrequencyNumber() != 0 {
		t.Fatalf("rejected set changed the selection to %d", tx.FrequencyNumber())
	}
	if err := tx.SetFrequencyNumber(1); err != nil {
		t.Fatalf("valid SetFrequencyNumber: %v", err)
	}
}

func TestRejectsZeroPulseWidth(t *testing.T) {
	tx, _ := newIdle(t, []uint16{10})
	if err := tx.SetPulseWidth(0); err != errcode.InvalidPulseWidth {
		t.Fatalf("SetPulseWidth(0) = %v, want %v", err, errcode.InvalidPulseWidth)
	}
	if tx.PulseWidth() != DefaultPulseWidth {
		t.Fatalf("rejected set changed the width to %d", tx.PulseWidth())
	}
}

func TestInitAbortsBurst(t *testing.T) {
	tx, pin := newIdle(t, []uint16{10})
	_ = tx.SetPulseWidth(25)
	tx.Run()
	run(tx, pin, 5) // mid-burst, pin high

	tx.Init()
	if pin.level != false {
		t.Fatal("Init left the pin high")
	}
	if tx.Running() {
		t.Fatal("Running true after Init")
	}
	// The dropped request does not resurface.
	tx.Tick()
	if extra := run(tx, pin, 10); len(extra) != 0 {
		t.Fatalf("unexpected writes after reset: %v", extra)
	}
}

func TestDebugForwardedToPin(t *testing.T) {
	table, _ := NewTable([]uint16{10})
	pin := &fakePin{}
	tx := New(table, pin)

	tx.SetDebug(true)
	if !pin.debug {
		t.Fatal("debug flag not forwarded")
	}
	tx.Init()
	if !pin.debug {
		t.Fatal("Init cleared the forwarded debug flag")
	}
	tx.SetDebug(false)
	if pin.debug {
		t.Fatal("debug flag not cleared")
	}
}
