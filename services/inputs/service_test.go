// services/inputs/service_test.go
package inputs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"lasertag-go/bus"
	"lasertag-go/hal"
	"lasertag-go/types"
)

type rig struct {
	b    *bus.Bus
	pins *hal.MemPinFactory
	svc  *Service
	sub  *bus.Subscription
	conn *bus.Connection
}

func newRig(t *testing.T) (*rig, func()) {
	t.Helper()
	b := bus.NewBus(16)
	pins := hal.NewMemPinFactory()
	ctx, cancel := context.WithCancel(context.Background())

	conn := b.NewConnection("test")
	sub := conn.Subscribe(bus.T("tx", "control", "+"))

	svc := Start(ctx, b.NewConnection("inputs"), pins)

	cfg := map[string]any{
		"trigger_pin":  float64(10),
		"channel_pins": []any{float64(2), float64(3)},
		"debounce_ms":  float64(0),
	}
	conn.Publish(conn.NewMessage(bus.T("config", "inputs"), cfg, true))

	// Wait for the watches to come up before injecting edges.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := svc.worker.Level("trigger"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("trigger watch never registered")
		}
		time.Sleep(time.Millisecond)
	}

	return &rig{b: b, pins: pins, svc: svc, sub: sub, conn: conn}, cancel
}

func (r *rig) next(t *testing.T) *bus.Message {
	t.Helper()
	select {
	case m := <-r.sub.Channel():
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no control message")
		return nil
	}
}

func TestInputs_TriggerFiresBurst(t *testing.T) {
	r, cancel := newRig(t)
	defer cancel()

	trig, _ := r.pins.Mem(10)
	trig.Inject(true)

	m := r.next(t)
	set, ok := m.Payload.(types.TxSetFrequency)
	if !ok {
		t.Fatalf("want set_frequency first, got %T", m.Payload)
	}
	if set.Frequency != 0 {
		t.Fatalf("Frequency = %d, want 0", set.Frequency)
	}

	m = r.next(t)
	if _, ok := m.Payload.(types.TxRun); !ok {
		t.Fatalf("want run after set_frequency, got %T", m.Payload)
	}
}

func TestInputs_SwitchesSelectChannel(t *testing.T) {
	r, cancel := newRig(t)
	defer cancel()

	ch0, _ := r.pins.Mem(2)
	ch1, _ := r.pins.Mem(3)
	ch0.Inject(true)

	m := r.next(t)
	set := m.Payload.(types.TxSetFrequency)
	if set.Frequency != 1 {
		t.Fatalf("Frequency = %d, want 1", set.Frequency)
	}

	ch1.Inject(true)
	m = r.next(t)
	set = m.Payload.(types.TxSetFrequency)
	if set.Frequency != 3 {
		t.Fatalf("Frequency = %d, want 3", set.Frequency)
	}
}

func TestInputs_SelectionWrapsToChannelCount(t *testing.T) {
	r, cancel := newRig(t)
	defer cancel()

	info := types.Info{
		SchemaVersion: 1,
		Driver:        "transmitter",
		Detail:        types.TransmitterInfo{Channels: 2},
	}
	r.conn.Publish(r.conn.NewMessage(bus.T("tx", "info"), info, true))

	// Let the retained info land before the switch moves.
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&r.svc.channels) != 2 {
		if time.Now().After(deadline) {
			t.Fatal("channel count never applied")
		}
		time.Sleep(time.Millisecond)
	}

	ch0, _ := r.pins.Mem(2)
	ch1, _ := r.pins.Mem(3)
	ch0.Inject(true)
	<-r.sub.Channel()
	ch1.Inject(true)

	m := r.next(t)
	set := m.Payload.(types.TxSetFrequency)
	if set.Frequency != 1 {
		t.Fatalf("Frequency = %d, want 3 %% 2 = 1", set.Frequency)
	}
}
