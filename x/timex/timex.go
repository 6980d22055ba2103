package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Duration(1_000_000_000 / uint64(freqHz))
}

// TicksPerCycle returns how many ticks at tickRateHz make up one full cycle
// of a waveform at freqHz, rounded to nearest. Zero inputs are coerced to 1.
func TicksPerCycle(tickRateHz, freqHz uint32) uint32 {
	if tickRateHz == 0 {
		tickRateHz = 1
	}
	if freqHz == 0 {
		freqHz = 1
	}
	return (tickRateHz + freqHz/2) / freqHz
}
