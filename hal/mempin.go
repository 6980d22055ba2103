// hal/mempin.go
package hal

import "sync"

// MemPin is an in-memory pin used on hosts without GPIO and by tests. With
// debug tracing on, every output write goes to the console, which is how
// the handheld's bring-up harness shows the waveform without a scope.
type MemPin struct {
	mu      sync.Mutex
	n       int
	level   bool
	output  bool
	pull    Pull
	debug   bool
	handler func()
	edge    Edge
}

func NewMemPin(n int) *MemPin { return &MemPin{n: n} }

func (p *MemPin) Number() int { return p.n }

func (p *MemPin) ConfigureInput(pull Pull) error {
	p.mu.Lock()
	p.output = false
	p.pull = pull
	p.level = pull == PullUp
	p.mu.Unlock()
	return nil
}

func (p *MemPin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.output = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *MemPin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	debug := p.debug
	n := p.n
	p.mu.Unlock()
	if debug {
		if level {
			println("pin", n, "-> 1")
		} else {
			println("pin", n, "-> 0")
		}
	}
}

func (p *MemPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *MemPin) Toggle() {
	p.mu.Lock()
	p.level = !p.level
	p.mu.Unlock()
}

// SetDebug enables write tracing; the transmitter forwards its debug flag
// here.
func (p *MemPin) SetDebug(on bool) {
	p.mu.Lock()
	p.debug = on
	p.mu.Unlock()
}

// Inject simulates an external level change and fires any registered IRQ
// handler, so input handling can be exercised without hardware.
func (p *MemPin) Inject(level bool) {
	p.mu.Lock()
	prev := p.level
	p.level = level
	h := p.handler
	edge := p.edge
	p.mu.Unlock()

	if h == nil || prev == level {
		return
	}
	switch {
	case edge == EdgeBoth,
		edge == EdgeRising && level,
		edge == EdgeFalling && !level:
		h()
	}
}

func (p *MemPin) SetIRQ(edge Edge, handler func()) error {
	p.mu.Lock()
	p.edge = edge
	p.handler = handler
	p.mu.Unlock()
	return nil
}

func (p *MemPin) ClearIRQ() error {
	p.mu.Lock()
	p.handler = nil
	p.edge = EdgeNone
	p.mu.Unlock()
	return nil
}

// MemPinFactory hands out MemPins keyed by number.
type MemPinFactory struct {
	mu   sync.Mutex
	pins map[int]*MemPin
}

func NewMemPinFactory() *MemPinFactory {
	return &MemPinFactory{pins: map[int]*MemPin{}}
}

func (f *MemPinFactory) ByNumber(n int) (GPIOPin, bool) {
	p, _ := f.Mem(n)
	return p, true
}

// Mem returns the typed pin so harnesses can Inject levels.
func (f *MemPinFactory) Mem(n int) (*MemPin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	if !ok {
		p = NewMemPin(n)
		f.pins[n] = p
	}
	return p, true
}
