// Package fanshim drives a Fan SHIM style board: one APA102 RGB LED
// bit-banged over a clock and a data line, a fan switch and a push button.
package fanshim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/cpu"
)

// Opts tunes the LED bus.
type Opts struct {
	// BitDelay is held after each clock edge. It is a floor: the scheduler
	// may stretch it, which the LED tolerates.
	BitDelay time.Duration
}

var DefaultOpts = Opts{
	BitDelay: 500 * time.Nanosecond,
}

// Dev is an open board. It owns its four lines until Close.
type Dev struct {
	mu     sync.Mutex
	clk    gpio.PinOut
	dat    gpio.PinOut
	btn    gpio.PinIn
	fan    gpio.PinOut
	delay  time.Duration
	spin   func(time.Duration)
	closed bool
}

// Open loads the host GPIO drivers and takes the board's fixed lines. A nil o
// uses DefaultOpts.
func Open(o *Opts) (*Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, &AcquisitionError{Err: err}
	}
	p, err := DefaultPins()
	if err != nil {
		return nil, err
	}
	return New(p, o)
}

// New claims and configures p: clock and data as outputs driven low, button
// as an input with pull-up. The fan becomes an output at the level it already
// reads, so opening the board never stops a running fan. Either every line is
// taken or none is.
func New(p Pins, o *Opts) (d *Dev, err error) {
	if o == nil {
		o = &DefaultOpts
	}
	lines := []struct {
		role string
		p    pin.Pin
	}{
		{"clock", p.Clock},
		{"data", p.Data},
		{"button", p.Button},
		{"fan", p.Fan},
	}

	var held []pin.Pin
	defer func() {
		if err != nil {
			release(held...)
		}
	}()
	for _, l := range lines {
		if l.p == nil {
			return nil, &AcquisitionError{Pin: l.role, Err: ErrPinNotFound}
		}
		if err := claim(l.p); err != nil {
			return nil, &AcquisitionError{Pin: l.p.Name(), Err: err}
		}
		held = append(held, l.p)
	}

	for _, out := range []gpio.PinOut{p.Clock, p.Data} {
		if err := out.Out(gpio.Low); err != nil {
			return nil, &AcquisitionError{Pin: out.Name(), Err: err}
		}
	}
	fan := gpio.Low
	if in, ok := p.Fan.(gpio.PinIn); ok {
		fan = in.Read()
	}
	if err := p.Fan.Out(fan); err != nil {
		return nil, &AcquisitionError{Pin: p.Fan.Name(), Err: err}
	}
	if err := p.Button.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, &AcquisitionError{Pin: p.Button.Name(), Err: err}
	}

	d = &Dev{
		clk:   p.Clock,
		dat:   p.Data,
		btn:   p.Button,
		fan:   p.Fan,
		delay: o.BitDelay,
		spin:  cpu.Nanospin,
	}
	log.Debug().Str("dev", d.String()).Dur("bit_delay", d.delay).Msg("fanshim acquired")
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("fanshim{clk=%s, dat=%s, btn=%s, fan=%s}", d.clk.Name(), d.dat.Name(), d.btn.Name(), d.fan.Name())
}

func (d *Dev) FanOn() error {
	return d.setFan(gpio.High)
}

func (d *Dev) FanOff() error {
	return d.setFan(gpio.Low)
}

func (d *Dev) setFan(l gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.out(d.fan, l)
}

// ButtonState is a raw snapshot of the button line. Which level means
// "pressed" depends on how the board is wired.
func (d *Dev) ButtonState() gpio.Level {
	return d.btn.Read()
}

// Close releases the lines. The LED and fan keep whatever state they had.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	release(d.clk, d.dat, d.btn, d.fan)

	var errs []error
	for _, p := range []pin.Pin{d.clk, d.dat, d.btn, d.fan} {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("fanshim: halt %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dev) out(p gpio.PinOut, l gpio.Level) error {
	if err := p.Out(l); err != nil {
		return fmt.Errorf("fanshim: %s: %w", p.Name(), err)
	}
	return nil
}
