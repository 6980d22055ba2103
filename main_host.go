//go:build !(rp2040 || rp2350)

package main

import "lasertag-go/services/telemetry"

const deviceID = "host"

func platformInit() {}

// No onboard sensor away from the handheld board; telemetry idles.
func platformSensor() telemetry.Sensor { return nil }
