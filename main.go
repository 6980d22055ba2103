package main

import (
	"context"
	"time"

	"lasertag-go/bus"
	"lasertag-go/hal"
	"lasertag-go/services/config"
	"lasertag-go/services/heartbeat"
	"lasertag-go/services/inputs"
	"lasertag-go/services/telemetry"
	txservice "lasertag-go/services/transmitter"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot:", deviceID)

	platformInit()

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)
	b := bus.NewBus(16)
	pins := hal.DefaultPinFactory()

	txservice.Start(ctx, b.NewConnection("transmitter"), pins)
	inputs.Start(ctx, b.NewConnection("inputs"), pins)
	telemetry.Start(ctx, b.NewConnection("telemetry"), platformSensor())

	hb := &heartbeat.Service{}
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		println("Warn: heartbeat:", err.Error())
	}

	// Config last; sections are retained, so services see them regardless of
	// start order.
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	select {}
}
