//go:build rp2040 || rp2350

package main

import (
	"machine"

	"lasertag-go/hal"
	"lasertag-go/services/telemetry"
)

const deviceID = "handheld"

// uart0 on GP0/GP1 carries the console; the logic analyser rig taps it next
// to the emitter pin.
func platformInit() {
	if !hal.OpenUARTConsole("uart0", 115200, 0, 1) {
		println("Warn: uart console unavailable")
	}
}

// platformSensor brings up the SHTC3 on i2c1 board-default pins. i2c0's
// default pins are taken by the channel switches.
func platformSensor() telemetry.Sensor {
	b := machine.I2C1
	err := b.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	if err != nil {
		println("Warn: i2c1:", err.Error())
		return nil
	}
	return telemetry.NewSHTC3(b)
}
