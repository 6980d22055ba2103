// cmd/txtest/main.go
package main

import (
	"context"
	"fmt"
	"time"

	"lasertag-go/drivers/transmitter"
	"lasertag-go/hal"
	"lasertag-go/x/timex"
)

// ---------- Configuration ----------

// Modes:
//   "manual"     - free-running tick loop; a trigger pull fires a one-shot
//                  burst at the switch-selected channel
//   "oneshot"    - interval-paced single bursts, channel from the switches
//   "continuous" - continuous mode; channel changes take effect at the
//                  next burst boundary
const testMode = "manual"

const (
	outputPinNum  = 15
	triggerPinNum = 10

	// Slow enough to watch on a logic analyser or with pin tracing on.
	tickRateHz = 1_000
	pulseWidth = 400 // ticks per burst

	debounceMS = 5

	// oneshot mode: gap between bursts
	burstInterval = 2 * time.Second
)

// Channel slide switches, LSB first.
var channelPinNums = []int{2, 3, 4, 5}

// ---------- Setup ----------

func out(format string, a ...any) {
	fmt.Fprintf(hal.Console, format, a...)
}

type board struct {
	tx       *transmitter.Transmitter
	worker   *hal.InputWorker
	tickGap  time.Duration
	channels int
}

func setup() (*board, error) {
	pins := hal.DefaultPinFactory()

	outPin, ok := pins.ByNumber(outputPinNum)
	if !ok {
		return nil, fmt.Errorf("no output pin %d", outputPinNum)
	}
	if err := outPin.ConfigureOutput(false); err != nil {
		return nil, err
	}

	table := transmitter.DefaultTable
	tx := transmitter.New(table, outPin)
	if err := tx.SetPulseWidth(pulseWidth); err != nil {
		return nil, err
	}
	tx.SetDebug(true)
	tx.Init()
	tx.Tick() // settle into idle so the first trigger pull is not delayed

	worker := hal.NewInputWorker(0, 0)
	worker.Start(context.Background())

	trig, ok := pins.ByNumber(triggerPinNum)
	if !ok {
		return nil, fmt.Errorf("no trigger pin %d", triggerPinNum)
	}
	if err := trig.ConfigureInput(hal.PullDown); err != nil {
		return nil, err
	}
	if irq, ok := trig.(hal.IRQPin); ok {
		if _, err := worker.Watch("trigger", irq, hal.EdgeRising, debounceMS, false); err != nil {
			return nil, err
		}
	}

	for i, n := range channelPinNums {
		p, ok := pins.ByNumber(n)
		if !ok {
			continue
		}
		if err := p.ConfigureInput(hal.PullDown); err != nil {
			continue
		}
		if irq, ok := p.(hal.IRQPin); ok {
			_, _ = worker.Watch(fmt.Sprintf("ch%d", i), irq, hal.EdgeBoth, debounceMS, false)
		}
	}

	return &board{
		tx:       tx,
		worker:   worker,
		tickGap:  timex.PeriodFromHz(tickRateHz),
		channels: len(table),
	}, nil
}

// switchValue reads the channel switches as a binary number, wrapped to the
// table size.
func (b *board) switchValue() int {
	v := 0
	for i := range channelPinNums {
		if lvl, ok := b.worker.Level(fmt.Sprintf("ch%d", i)); ok {
			v |= lvl << i
		}
	}
	return v % b.channels
}

func (b *board) triggerPulled() bool {
	for {
		select {
		case ev := <-b.worker.Events():
			if ev.Name == "trigger" && ev.Edge == hal.EdgeRising {
				return true
			}
			out("input: %s %s\n", ev.Name, hal.EdgeToString(ev.Edge))
		default:
			return false
		}
	}
}

// ---------- Modes ----------

// runManual mirrors normal firmware operation: one tick per loop pass, a
// trigger pull arms a one-shot burst at whatever the switches say.
func runManual(b *board) {
	out("manual: trigger fires a one-shot burst, switches pick the channel\n")
	for {
		if b.triggerPulled() {
			ch := b.switchValue()
			if err := b.tx.SetFrequencyNumber(ch); err != nil {
				out("set channel %d: %v\n", ch, err)
			} else {
				out("burst: channel %d\n", ch)
				b.tx.Run()
			}
		}
		b.tx.Tick()
		time.Sleep(b.tickGap)
	}
}

// runOneshot paces single bursts on a fixed interval, re-reading the
// switches before each one.
func runOneshot(b *board) {
	out("oneshot: one burst every %v\n", burstInterval)
	for {
		ch := b.switchValue()
		if err := b.tx.SetFrequencyNumber(ch); err != nil {
			out("set channel %d: %v\n", ch, err)
			time.Sleep(burstInterval)
			continue
		}
		out("burst: channel %d\n", ch)
		b.tx.Run()
		for b.tx.Tick(); b.tx.Running(); b.tx.Tick() {
			time.Sleep(b.tickGap)
		}
		time.Sleep(burstInterval)
	}
}

// runContinuous keeps the transmitter re-arming itself; switch changes land
// at burst boundaries.
func runContinuous(b *board) {
	out("continuous: bursts back to back, switches re-read each boundary\n")
	b.tx.SetContinuousMode(true)
	if err := b.tx.SetFrequencyNumber(b.switchValue()); err != nil {
		out("set channel: %v\n", err)
		return
	}
	b.tx.Run()
	last := -1
	for {
		ch := b.switchValue()
		if ch != last {
			if err := b.tx.SetFrequencyNumber(ch); err == nil {
				out("channel -> %d\n", ch)
				last = ch
			}
		}
		b.tx.Tick()
		time.Sleep(b.tickGap)
	}
}

// ---------- Main ----------

func main() {
	// Give USB CDC a moment to enumerate before the banner.
	time.Sleep(2 * time.Second)

	b, err := setup()
	if err != nil {
		out("setup failed: %v\n", err)
		return
	}
	out("txtest: pin %d, %d channels, tick %v, width %d ticks\n",
		outputPinNum, b.channels, b.tickGap, pulseWidth)

	switch testMode {
	case "oneshot":
		runOneshot(b)
	case "continuous":
		runContinuous(b)
	default:
		runManual(b)
	}
}
