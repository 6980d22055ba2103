// hal/pin_host.go
//go:build !(rp2040 || rp2350) && !(linux && arm64)

package hal

// DefaultPinFactory on plain hosts hands out in-memory pins, so the
// firmware and its harnesses run anywhere for bring-up and tests.
func DefaultPinFactory() PinFactory { return NewMemPinFactory() }
