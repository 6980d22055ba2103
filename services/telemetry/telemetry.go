// services/telemetry/telemetry.go
package telemetry

import (
	"context"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/shtc3"

	"lasertag-go/bus"
	"lasertag-go/types"
	"lasertag-go/x/mathx"
)

var (
	topicConfig = bus.T("config", "telemetry")
	topicTemp   = bus.T("env", "temperature")
	topicHum    = bus.T("env", "humidity")
)

// Sensor is the measurement surface the service polls. The SHTC3 on the
// emitter driver board satisfies it via NewSHTC3; tests inject a fake.
type Sensor interface {
	WakeUp() error
	Sleep() error
	// ReadTemperatureHumidity returns milli-degC and relative humidity x100.
	ReadTemperatureHumidity() (int32, int32, error)
}

// NewSHTC3 wraps the stock sensor on an already-configured I2C bus.
func NewSHTC3(i2c drivers.I2C) Sensor {
	return &shtc3Sensor{dev: shtc3.New(i2c)}
}

type shtc3Sensor struct {
	dev shtc3.Device
}

func (s *shtc3Sensor) WakeUp() error { return s.dev.WakeUp() }
func (s *shtc3Sensor) Sleep() error  { return s.dev.Sleep() }
func (s *shtc3Sensor) ReadTemperatureHumidity() (int32, int32, error) {
	tmc, rh, err := s.dev.ReadTemperatureHumidity()
	return tmc, int32(rh), err
}

// Service samples board temperature during operation. Sustained continuous
// transmission heats the emitter driver stage; the readings let an operator
// spot that before it matters.
type Service struct {
	conn     *bus.Connection
	sensor   Sensor
	interval time.Duration
}

// Start launches the sampler. A nil sensor (host builds without I2C) makes
// the service a no-op.
func Start(ctx context.Context, conn *bus.Connection, sensor Sensor) *Service {
	s := &Service{conn: conn, sensor: sensor, interval: 5 * time.Second}
	if sensor != nil {
		go s.run(ctx)
	}
	return s
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := asInt(m["interval_ms"]); ok && iv > 0 {
					s.interval = time.Duration(iv) * time.Millisecond
					tick.Reset(s.interval)
				}
			}
		case <-tick.C:
			s.sample()
		}
	}
}

func (s *Service) sample() {
	if err := s.sensor.WakeUp(); err != nil {
		return
	}
	defer func() { _ = s.sensor.Sleep() }()

	tmc, rhx100, err := s.sensor.ReadTemperatureHumidity()
	if err != nil {
		return
	}

	// tmc is milli-degC; publish deci-degC. Clamp ranges.
	decic := mathx.Clamp(tmc/100, -32768, 32767)
	rhx100 = mathx.Clamp(rhx100, 0, 10000)

	s.conn.Publish(s.conn.NewMessage(topicTemp,
		types.TemperatureValue{DeciC: int16(decic)}, true))
	s.conn.Publish(s.conn.NewMessage(topicHum,
		types.HumidityValue{RHx100: uint16(rhx100)}, true))
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}
