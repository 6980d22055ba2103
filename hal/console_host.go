// hal/console_host.go
//go:build !(rp2040 || rp2350)

package hal

import (
	"io"
	"os"
)

// Console is where debug and harness output goes. Host builds write to
// stdout; MCU builds route it to the USB or UART console.
var Console io.Writer = os.Stdout
