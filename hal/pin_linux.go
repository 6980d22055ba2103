// hal/pin_linux.go
//go:build linux && arm64 && !(rp2040 || rp2350)

package hal

import (
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// DefaultPinFactory resolves pins through periph.io, for the SBC-based
// development rig. Numbers follow the kernel's GPIOn naming.
func DefaultPinFactory() PinFactory {
	if _, err := host.Init(); err != nil {
		println("Warn: periph host init failed:", err.Error())
	}
	return periphFactory{}
}

type periphFactory struct{}

func (periphFactory) ByNumber(n int) (GPIOPin, bool) {
	p := gpioreg.ByName("GPIO" + strconv.Itoa(n))
	if p == nil {
		return nil, false
	}
	return &periphPin{p: p, n: n}, true
}

type periphPin struct {
	p gpio.PinIO
	n int

	mu   sync.Mutex
	pull gpio.Pull
	stop chan struct{}
}

func (pp *periphPin) Number() int { return pp.n }

func (pp *periphPin) ConfigureInput(pull Pull) error {
	g := gpio.Float
	switch pull {
	case PullUp:
		g = gpio.PullUp
	case PullDown:
		g = gpio.PullDown
	}
	pp.mu.Lock()
	pp.pull = g
	pp.mu.Unlock()
	return pp.p.In(g, gpio.NoEdge)
}

func (pp *periphPin) ConfigureOutput(initial bool) error {
	return pp.p.Out(gpio.Level(initial))
}

func (pp *periphPin) Set(level bool) { _ = pp.p.Out(gpio.Level(level)) }
func (pp *periphPin) Get() bool      { return pp.p.Read() == gpio.High }

func (pp *periphPin) Toggle() { pp.Set(!pp.Get()) }

// SetIRQ emulates a pin interrupt with an edge-wait goroutine; periph has
// no callback API.
func (pp *periphPin) SetIRQ(edge Edge, handler func()) error {
	pp.mu.Lock()
	g := pp.pull
	if pp.stop != nil {
		close(pp.stop)
	}
	stop := make(chan struct{})
	pp.stop = stop
	pp.mu.Unlock()

	e := gpio.NoEdge
	switch edge {
	case EdgeRising:
		e = gpio.RisingEdge
	case EdgeFalling:
		e = gpio.FallingEdge
	case EdgeBoth:
		e = gpio.BothEdges
	}
	if err := pp.p.In(g, e); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			if pp.p.WaitForEdge(500 * time.Millisecond) {
				handler()
			}
		}
	}()
	return nil
}

func (pp *periphPin) ClearIRQ() error {
	pp.mu.Lock()
	if pp.stop != nil {
		close(pp.stop)
		pp.stop = nil
	}
	g := pp.pull
	pp.mu.Unlock()
	return pp.p.In(g, gpio.NoEdge)
}
