package transmitter

import (
	"lasertag-go/errcode"
	"lasertag-go/x/timex"
)

// Table maps a frequency number to the tick count of one full waveform
// cycle. It is populated once at startup and never mutated afterwards.
type Table []uint16

// NewTable validates a period list. Every entry must be positive, otherwise
// the duty-cycle arithmetic in the state machine would divide by zero.
func NewTable(periods []uint16) (Table, error) {
	if len(periods) == 0 {
		return nil, errcode.EmptyTable
	}
	for _, p := range periods {
		if p == 0 {
			return nil, errcode.InvalidPeriod
		}
	}
	t := make(Table, len(periods))
	copy(t, periods)
	return t, nil
}

// TableForRates derives a table from emitter frequencies at the driver's
// tick rate. Frequencies above half the tick rate cannot be represented as
// a full high/low cycle and are rejected.
func TableForRates(tickRateHz uint32, freqsHz []uint32) (Table, error) {
	if len(freqsHz) == 0 {
		return nil, errcode.EmptyTable
	}
	t := make(Table, len(freqsHz))
	for i, f := range freqsHz {
		ticks := timex.TicksPerCycle(tickRateHz, f)
		if ticks < 2 || ticks > 0xFFFF {
			return nil, errcode.InvalidPeriod
		}
		t[i] = uint16(ticks)
	}
	return t, nil
}

// Period returns the tick count for one cycle at frequency number n.
// Callers must validate n first; see Valid.
func (t Table) Period(n int) uint16 { return t[n] }

// Valid reports whether n selects a row of the table.
func (t Table) Valid(n int) bool { return n >= 0 && n < len(t) }

// DefaultTickRateHz is the cadence the interrupt driver ticks the state
// machine at on the handheld.
const DefaultTickRateHz = 100_000

// PlayerFrequenciesHz lists the ten channel frequencies the handhelds
// transmit on.
var PlayerFrequenciesHz = []uint32{
	1471, 1724, 2000, 2273, 2632, 2941, 3333, 3571, 3846, 4167,
}

// DefaultTable holds the per-channel cycle lengths for PlayerFrequenciesHz
// at DefaultTickRateHz.
var DefaultTable = Table{68, 58, 50, 44, 38, 34, 30, 28, 26, 24}
