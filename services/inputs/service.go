// services/inputs/service.go
package inputs

import (
	"context"
	"strconv"
	"sync/atomic"

	"lasertag-go/bus"
	"lasertag-go/hal"
	"lasertag-go/types"
)

var (
	topicConfig = bus.T("config", "inputs")
	topicTxInfo = bus.T("tx", "info")
	topicRun    = bus.T("tx", "control", "run")
	topicSetFrq = bus.T("tx", "control", "set_frequency")
)

// Service maps the physical controls onto transmitter commands: the channel
// slide switches pick the frequency number and a trigger pull fires a
// burst. All debouncing happens in the HAL input worker; by the time an
// event lands here it is clean.
type Service struct {
	conn   *bus.Connection
	pins   hal.PinFactory
	worker *hal.InputWorker

	channelPins []int
	channels    int32 // from the transmitter's retained info; 0 = unknown
	cancels     []func()
}

func Start(ctx context.Context, conn *bus.Connection, pins hal.PinFactory) *Service {
	s := &Service{
		conn:   conn,
		pins:   pins,
		worker: hal.NewInputWorker(0, 0),
	}
	s.worker.Start(ctx)
	go s.run(ctx)
	return s
}

func (s *Service) run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)
	infoSub := s.conn.Subscribe(topicTxInfo)
	defer s.conn.Unsubscribe(infoSub)

	for {
		select {
		case <-ctx.Done():
			s.cancelAll()
			return
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				s.applyConfig(m)
			}
		case msg := <-infoSub.Channel():
			if info, ok := msg.Payload.(types.Info); ok {
				if d, ok := info.Detail.(types.TransmitterInfo); ok {
					atomic.StoreInt32(&s.channels, int32(d.Channels))
				}
			}
		case ev := <-s.worker.Events():
			s.handleEvent(ev)
		}
	}
}

func (s *Service) applyConfig(m map[string]any) {
	s.cancelAll()
	s.channelPins = nil

	debounce := 5
	if v, ok := asInt(m["debounce_ms"]); ok {
		debounce = v
	}
	invert, _ := m["trigger_invert"].(bool)

	if n, ok := asInt(m["trigger_pin"]); ok {
		if pin := s.claimInput(n, invert); pin != nil {
			// Only the pull matters for the trigger; release edges are noise.
			if cancel, err := s.worker.Watch("trigger", pin, hal.EdgeRising, debounce, invert); err == nil {
				s.cancels = append(s.cancels, cancel)
			}
		}
	}

	if raw, ok := m["channel_pins"].([]any); ok {
		for i, v := range raw {
			n, ok := asInt(v)
			if !ok {
				continue
			}
			pin := s.claimInput(n, false)
			if pin == nil {
				continue
			}
			name := "ch" + strconv.Itoa(i)
			if cancel, err := s.worker.Watch(name, pin, hal.EdgeBoth, debounce, false); err == nil {
				s.cancels = append(s.cancels, cancel)
				s.channelPins = append(s.channelPins, n)
			}
		}
	}
}

func (s *Service) claimInput(n int, invert bool) hal.IRQPin {
	p, ok := s.pins.ByNumber(n)
	if !ok {
		println("Warn: inputs: no pin", n)
		return nil
	}
	pull := hal.PullDown
	if invert {
		pull = hal.PullUp
	}
	if err := p.ConfigureInput(pull); err != nil {
		println("Warn: inputs: configure pin", n, "failed")
		return nil
	}
	irq, ok := p.(hal.IRQPin)
	if !ok {
		println("Warn: inputs: pin", n, "has no IRQ support")
		return nil
	}
	return irq
}

func (s *Service) handleEvent(ev hal.InputEvent) {
	switch {
	case ev.Name == "trigger" && ev.Edge == hal.EdgeRising:
		// Latch the switches into the frequency selection, then fire.
		s.publishSelection()
		s.conn.Publish(s.conn.NewMessage(topicRun, types.TxRun{}, false))
	case len(ev.Name) > 2 && ev.Name[:2] == "ch":
		// Mid-burst changes are fine; the core applies them at the next
		// burst boundary.
		s.publishSelection()
	}
}

// publishSelection reads the switch bank as a binary channel number.
func (s *Service) publishSelection() {
	value := 0
	for i := range s.channelPins {
		lvl, ok := s.worker.Level("ch" + strconv.Itoa(i))
		if !ok {
			return
		}
		value |= lvl << i
	}
	if n := int(atomic.LoadInt32(&s.channels)); n > 0 {
		value %= n // keep the selection inside the table
	}
	s.conn.Publish(s.conn.NewMessage(topicSetFrq, types.TxSetFrequency{Frequency: value}, false))
}

func (s *Service) cancelAll() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
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
