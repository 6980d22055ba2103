// hal/console_rp2xxx.go
//go:build rp2040 || rp2350

package hal

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Console is where debug and harness output goes on MCU builds. It defaults
// to the USB CDC console; OpenUARTConsole redirects it to a hardware UART
// so a logic analyser rig can capture the trace alongside the waveform.
var Console interface{ Write(p []byte) (int, error) } = usbConsole{}

type usbConsole struct{}

func (usbConsole) Write(p []byte) (int, error) {
	for _, b := range p {
		print(string(rune(b)))
	}
	return len(p), nil
}

// OpenUARTConsole routes Console to uart0 or uart1 on the given pins.
func OpenUARTConsole(id string, baud uint32, tx, rx int) bool {
	var hw *uartx.UART
	switch id {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return false
	}
	// Defaults inside uartx apply for zero values.
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.Pin(tx),
		RX:       machine.Pin(rx),
	})
	Console = hw
	return true
}
