// hal/input_worker.go
package hal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// InputEvent is delivered from the worker to whoever drives the firmware:
// a debounced edge on the trigger, a mode button, or a channel switch.
type InputEvent struct {
	Name  string
	Level int // 0/1 after inversion applied
	Edge  Edge
	TS    time.Time
}

// InputWorker turns raw pin interrupts into debounced input events. The ISR
// side only does a register read and a non-blocking channel send; all
// filtering happens on the worker goroutine. Debounce lives here so the
// transmitter core never sees switch chatter.
type InputWorker struct {
	// Written by ISR; MUST NOT block the ISR:
	isrQ chan isrEvent

	// Consumed by the firmware services:
	outQ chan InputEvent

	stopped chan struct{}

	mu     sync.RWMutex
	inputs map[string]*watch // name -> watch

	drops uint32 // ISR drop counter
}

type isrEvent struct {
	name  string
	level bool // captured in ISR
}

type watch struct {
	name      string
	pin       IRQPin
	edge      Edge
	debounce  time.Duration
	invert    bool
	lastLevel bool
	lastEvent time.Time
	cancelIRQ func()
}

func NewInputWorker(isrBuf, outBuf int) *InputWorker {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	if outBuf <= 0 {
		outBuf = 64
	}
	return &InputWorker{
		isrQ:    make(chan isrEvent, isrBuf),
		outQ:    make(chan InputEvent, outBuf),
		stopped: make(chan struct{}),
		inputs:  map[string]*watch{},
	}
}

func (w *InputWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-w.isrQ:
				w.handleISR(ev)
			}
		}
	}()
}

func (w *InputWorker) Events() <-chan InputEvent { return w.outQ }

// Watch registers a named input. The returned func cancels the watch.
func (w *InputWorker) Watch(name string, pin IRQPin, edge Edge, debounceMS int, invert bool) (func(), error) {
	if edge == EdgeNone {
		return func() {}, nil
	}
	deb := time.Duration(debounceMS) * time.Millisecond

	wh := &watch{
		name:      name,
		pin:       pin,
		edge:      edge,
		debounce:  deb,
		invert:    invert,
		lastLevel: pin.Get(), // initial snapshot
	}
	if invert {
		wh.lastLevel = !wh.lastLevel
	}

	// ISR handler: fast register read + non-blocking channel send.
	handler := func() {
		l := pin.Get()
		select {
		case w.isrQ <- isrEvent{name: name, level: l}:
		default:
			atomic.AddUint32(&w.drops, 1) // protect ISR path
		}
	}
	if err := pin.SetIRQ(EdgeBoth, handler); err != nil {
		return nil, err
	}
	wh.cancelIRQ = func() { _ = pin.ClearIRQ() }

	w.mu.Lock()
	w.inputs[name] = wh
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		if cur, ok := w.inputs[name]; ok {
			if cur.cancelIRQ != nil {
				cur.cancelIRQ()
			}
			delete(w.inputs, name)
		}
		w.mu.Unlock()
	}, nil
}

// Level reads a watched input's current debounced-polarity level directly,
// for inputs that are sampled rather than edge-driven (channel switches).
func (w *InputWorker) Level(name string) (int, bool) {
	w.mu.RLock()
	wh := w.inputs[name]
	w.mu.RUnlock()
	if wh == nil {
		return 0, false
	}
	raw := wh.pin.Get()
	if wh.invert {
		raw = !raw
	}
	return boolToInt(raw), true
}

func (w *InputWorker) handleISR(ev isrEvent) {
	w.mu.RLock()
	wh := w.inputs[ev.name]
	w.mu.RUnlock()
	if wh == nil {
		return
	}
	raw := ev.level
	if wh.invert {
		raw = !raw
	}
	now := time.Now()

	// Debounce
	if !wh.lastEvent.IsZero() && now.Sub(wh.lastEvent) < wh.debounce {
		return
	}

	// Edge detection
	var e Edge
	switch {
	case !wh.lastLevel && raw:
		e = EdgeRising
	case wh.lastLevel && !raw:
		e = EdgeFalling
	default:
		return
	}

	if wh.edge == EdgeBoth || wh.edge == e {
		select {
		case w.outQ <- InputEvent{Name: ev.name, Level: boolToInt(raw), Edge: e, TS: now}:
		default:
			// drop to protect system if consumer is slow
		}
	}

	wh.lastLevel = raw
	wh.lastEvent = now
}

func (w *InputWorker) ISRDrops() uint32 { return atomic.LoadUint32(&w.drops) }
