// services/telemetry/telemetry_test.go
package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"lasertag-go/bus"
	"lasertag-go/types"
)

type fakeSensor struct {
	tmc    int32
	rhx100 int32
	err    error
	wakes  int32
	sleeps int32
}

func (f *fakeSensor) WakeUp() error { atomic.AddInt32(&f.wakes, 1); return nil }
func (f *fakeSensor) Sleep() error  { atomic.AddInt32(&f.sleeps, 1); return nil }
func (f *fakeSensor) ReadTemperatureHumidity() (int32, int32, error) {
	return f.tmc, f.rhx100, f.err
}

func TestTelemetry_PublishesClampedReadings(t *testing.T) {
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sensor := &fakeSensor{tmc: 25_430, rhx100: 12_000} // 25.43 C, RH beyond range
	Start(ctx, b.NewConnection("telemetry"), sensor)

	conn := b.NewConnection("test")
	tempSub := conn.Subscribe(bus.T("env", "temperature"))
	humSub := conn.Subscribe(bus.T("env", "humidity"))

	// Speed the sampler up via config.
	conn.Publish(conn.NewMessage(bus.T("config", "telemetry"),
		map[string]any{"interval_ms": 10}, true))

	select {
	case msg := <-tempSub.Channel():
		v := msg.Payload.(types.TemperatureValue)
		if v.DeciC != 254 {
			t.Fatalf("DeciC = %d, want 254", v.DeciC)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for temperature")
	}

	select {
	case msg := <-humSub.Channel():
		v := msg.Payload.(types.HumidityValue)
		if v.RHx100 != 10000 {
			t.Fatalf("RHx100 = %d, want clamp to 10000", v.RHx100)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for humidity")
	}

	if atomic.LoadInt32(&sensor.wakes) == 0 {
		t.Fatal("sensor never woken")
	}
}

func TestTelemetry_SensorErrorSuppressesPublish(t *testing.T) {
	b := bus.NewBus(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sensor := &fakeSensor{err: errors.New("bus stuck")}
	Start(ctx, b.NewConnection("telemetry"), sensor)

	conn := b.NewConnection("test")
	tempSub := conn.Subscribe(bus.T("env", "temperature"))
	conn.Publish(conn.NewMessage(bus.T("config", "telemetry"),
		map[string]any{"interval_ms": 10}, true))

	select {
	case msg := <-tempSub.Channel():
		t.Fatalf("unexpected publish despite sensor error: %+v", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTelemetry_NilSensorIsNoop(t *testing.T) {
	b := bus.NewBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Must not panic or publish.
	Start(ctx, b.NewConnection("telemetry"), nil)

	conn := b.NewConnection("test")
	tempSub := conn.Subscribe(bus.T("env", "temperature"))
	select {
	case msg := <-tempSub.Channel():
		t.Fatalf("unexpected publish from nil sensor: %+v", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}
