// services/transmitter/service.go
package transmitter

import (
	"context"
	"time"

	"lasertag-go/bus"
	txdrv "lasertag-go/drivers/transmitter"
	"lasertag-go/errcode"
	"lasertag-go/hal"
	"lasertag-go/types"
	"lasertag-go/x/timex"
)

var (
	topicConfig     = bus.T("config", "transmitter")
	topicControl    = bus.T("tx", "control", "+")
	topicState      = bus.T("tx", "state")
	topicInfo       = bus.T("tx", "info")
	topicBurstStart = bus.T("tx", "event", "burst_start")
	topicBurstStop  = bus.T("tx", "event", "burst_stop")
	topicError      = bus.T("tx", "event", "error")
)

// Service drives one transmitter core from a single goroutine: the ticker,
// the control topics and the config topic are all handled in one loop, so
// the core's single-context contract holds by construction.
type Service struct {
	conn *bus.Connection
	pins hal.PinFactory

	machine    *txdrv.Transmitter
	table      txdrv.Table
	pin        hal.GPIOPin
	tickRate   uint32
	wasRunning bool
}

// Start launches the service. It stays idle until the transmitter config
// arrives on the bus.
func Start(ctx context.Context, conn *bus.Connection, pins hal.PinFactory) *Service {
	s := &Service{conn: conn, pins: pins}
	go s.run(ctx)
	return s
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)
	ctlSub := s.conn.Subscribe(topicControl)
	defer s.conn.Unsubscribe(ctlSub)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-cfgSub.Channel():
			if err := s.applyConfig(msg.Payload); err != nil {
				s.publishError(err)
				continue
			}
			if ticker != nil {
				ticker.Stop()
			}
			ticker = time.NewTicker(timex.PeriodFromHz(s.tickRate))
			tickC = ticker.C
			s.publishInfo()
			s.publishStatus()
		case msg := <-ctlSub.Channel():
			s.handleControl(msg)
		case <-tickC:
			s.machine.Tick()
			s.observeEdges()
		}
	}
}

// applyConfig builds (or rebuilds) the core from a config payload.
func (s *Service) applyConfig(payload any) error {
	m, ok := payload.(map[string]any)
	if !ok {
		return errcode.InvalidPayload
	}

	pinN, ok := asInt(m["pin"])
	if !ok {
		return errcode.InvalidParams
	}
	pin, ok := s.pins.ByNumber(pinN)
	if !ok {
		return errcode.UnknownPin
	}

	tickRate := txdrv.DefaultTickRateHz
	if v, ok := asInt(m["tick_rate_hz"]); ok && v > 0 {
		tickRate = v
	}

	table := txdrv.DefaultTable
	if raw, ok := m["frequencies_hz"].([]any); ok {
		freqs := make([]uint32, 0, len(raw))
		for _, f := range raw {
			hz, ok := asInt(f)
			if !ok || hz <= 0 {
				return errcode.InvalidParams
			}
			freqs = append(freqs, uint32(hz))
		}
		t, err := txdrv.TableForRates(uint32(tickRate), freqs)
		if err != nil {
			return err
		}
		table = t
	}

	if err := pin.ConfigureOutput(false); err != nil {
		return err
	}

	machine := txdrv.New(table, pin)
	if v, ok := asInt(m["pulse_width"]); ok {
		if err := machine.SetPulseWidth(uint32(v)); err != nil {
			return err
		}
	}
	if v, ok := m["continuous"].(bool); ok {
		machine.SetContinuousMode(v)
	}
	if v, ok := m["debug"].(bool); ok {
		machine.SetDebug(v)
	}
	machine.Init()

	s.machine = machine
	s.table = table
	s.pin = pin
	s.tickRate = uint32(tickRate)
	s.wasRunning = false
	return nil
}

func (s *Service) handleControl(msg *bus.Message) {
	if s.machine == nil {
		s.publishError(errcode.NotReady)
		return
	}
	method := msg.Topic[len(msg.Topic)-1]

	var err error
	switch method {
	case "run":
		s.machine.Run()
	case "set_frequency":
		p, ok := msg.Payload.(types.TxSetFrequency)
		if !ok {
			err = errcode.InvalidPayload
			break
		}
		err = s.machine.SetFrequencyNumber(p.Frequency)
	case "set_pulse_width":
		p, ok := msg.Payload.(types.TxSetPulseWidth)
		if !ok {
			err = errcode.InvalidPayload
			break
		}
		err = s.machine.SetPulseWidth(p.Width)
	case "set_mode":
		p, ok := msg.Payload.(types.TxSetMode)
		if !ok {
			err = errcode.InvalidPayload
			break
		}
		s.machine.SetContinuousMode(p.Continuous)
	case "set_debug":
		p, ok := msg.Payload.(types.TxSetDebug)
		if !ok {
			err = errcode.InvalidPayload
			break
		}
		s.machine.SetDebug(p.On)
	default:
		err = errcode.Unsupported
	}

	if err != nil {
		s.publishError(err)
		return
	}
	s.publishStatus()
}

// observeEdges publishes burst boundaries by watching Running transitions.
func (s *Service) observeEdges() {
	running := s.machine.Running()
	if running == s.wasRunning {
		return
	}
	s.wasRunning = running

	n := s.machine.FrequencyNumber()
	ev := types.BurstEvent{
		Frequency: n,
		Period:    s.table.Period(n),
		TS:        timex.NowMs(),
	}
	topic := topicBurstStop
	if running {
		topic = topicBurstStart
	}
	s.conn.Publish(s.conn.NewMessage(topic, ev, false))
	s.publishStatus()
}

func (s *Service) publishStatus() {
	st := types.TransmitterStatus{
		Running:    s.machine.Running(),
		Frequency:  s.machine.FrequencyNumber(),
		Continuous: s.machine.ContinuousMode(),
		PulseWidth: s.machine.PulseWidth(),
		TS:         timex.NowMs(),
	}
	s.conn.Publish(s.conn.NewMessage(topicState, st, true))
}

func (s *Service) publishInfo() {
	ticks := make([]int, len(s.table))
	for i := range s.table {
		ticks[i] = int(s.table.Period(i))
	}
	info := types.Info{
		SchemaVersion: 1,
		Driver:        "transmitter",
		Detail: types.TransmitterInfo{
			Pin:        s.pin.Number(),
			TickRateHz: int(s.tickRate),
			Channels:   len(s.table),
			TableTicks: ticks,
		},
	}
	s.conn.Publish(s.conn.NewMessage(topicInfo, info, true))
}

func (s *Service) publishError(err error) {
	reply := types.ErrorReply{OK: false, Error: string(errcode.Of(err))}
	s.conn.Publish(s.conn.NewMessage(topicError, reply, false))
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case uint64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}
