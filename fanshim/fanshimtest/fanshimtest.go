// Package fanshimtest is a simulated Fan SHIM for tests and dry runs.
//
// The clock and data lines feed a Bus that samples data on each rising clock
// edge, so the bytes and frames a Dev sends can be read back.
package fanshimtest

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/coreman2200/funtimes-fanshim/fanshim"
	"github.com/coreman2200/funtimes-fanshim/model"
)

var ErrBadFrame = errors.New("fanshimtest: malformed frame")

// Bus decodes the clocked serial stream.
type Bus struct {
	mu      sync.Mutex
	clock   gpio.Level
	data    gpio.Level
	bits    []gpio.Level
	bytes   []byte
	cur     byte
	n       int
	pulses  int
	lastEnd int

	// OnFrame, if set, is called after each complete LED frame.
	OnFrame func(model.Color)
}

func (b *Bus) setData(l gpio.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = l
}

func (b *Bus) setClock(l gpio.Level) {
	b.mu.Lock()
	var frame *model.Color
	switch {
	case l == gpio.High && b.clock == gpio.Low:
		frame = b.sample()
	case l == gpio.Low && b.clock == gpio.High:
		b.pulses++
	}
	b.clock = l
	cb := b.OnFrame
	b.mu.Unlock()

	if frame != nil && cb != nil {
		cb(*frame)
	}
}

func (b *Bus) sample() *model.Color {
	b.bits = append(b.bits, b.data)
	b.cur <<= 1
	if b.data == gpio.High {
		b.cur |= 1
	}
	b.n++
	if b.n < 8 {
		return nil
	}
	b.bytes = append(b.bytes, b.cur)
	b.cur, b.n = 0, 0

	start := len(b.bytes) - model.FrameLen
	if start < b.lastEnd {
		return nil
	}
	c, err := decode(b.bytes[start:])
	if err != nil {
		return nil
	}
	b.lastEnd = len(b.bytes)
	return &c
}

// Bytes returns every complete byte seen so far.
func (b *Bus) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.bytes...)
}

// Bits returns every sampled data bit, in wire order.
func (b *Bus) Bits() []gpio.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]gpio.Level(nil), b.bits...)
}

// Pulses counts completed clock high-to-low transitions.
func (b *Bus) Pulses() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pulses
}

func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bits, b.bytes = nil, nil
	b.cur, b.n, b.pulses, b.lastEnd = 0, 0, 0, 0
}

// Line is a simulated output wired to a Bus.
type Line struct {
	gpiotest.Pin
	bus   *Bus
	clock bool
}

func (l *Line) Out(v gpio.Level) error {
	if err := l.Pin.Out(v); err != nil {
		return err
	}
	if l.clock {
		l.bus.setClock(v)
	} else {
		l.bus.setData(v)
	}
	return nil
}

// Board is a complete simulated Fan SHIM.
type Board struct {
	Bus    *Bus
	Clock  *Line
	Data   *Line
	Button *gpiotest.Pin
	Fan    *gpiotest.Pin
}

func NewBoard() *Board {
	bus := &Bus{}
	return &Board{
		Bus:    bus,
		Clock:  &Line{Pin: gpiotest.Pin{N: name(fanshim.ClockPin), Num: fanshim.ClockPin}, bus: bus, clock: true},
		Data:   &Line{Pin: gpiotest.Pin{N: name(fanshim.DataPin), Num: fanshim.DataPin}, bus: bus},
		Button: &gpiotest.Pin{N: name(fanshim.ButtonPin), Num: fanshim.ButtonPin},
		Fan:    &gpiotest.Pin{N: name(fanshim.FanPin), Num: fanshim.FanPin},
	}
}

func name(n int) string {
	return fmt.Sprintf("GPIO%d", n)
}

func (b *Board) Pins() fanshim.Pins {
	return fanshim.Pins{Clock: b.Clock, Data: b.Data, Button: b.Button, Fan: b.Fan}
}

// SetButton forces the level the button line reads back.
func (b *Board) SetButton(l gpio.Level) {
	b.Button.Lock()
	defer b.Button.Unlock()
	b.Button.L = l
}

func (b *Board) FanLevel() gpio.Level {
	b.Fan.Lock()
	defer b.Fan.Unlock()
	return b.Fan.L
}

// Frames decodes everything seen on the bus so far.
func (b *Board) Frames() ([]model.Color, error) {
	return DecodeFrames(b.Bus.Bytes())
}

// DecodeFrames splits back-to-back LED frames.
func DecodeFrames(buf []byte) ([]model.Color, error) {
	var out []model.Color
	for len(buf) > 0 {
		if len(buf) < model.FrameLen {
			return out, fmt.Errorf("%w: %d trailing bytes", ErrBadFrame, len(buf))
		}
		c, err := decode(buf[:model.FrameLen])
		if err != nil {
			return out, err
		}
		out = append(out, c)
		buf = buf[model.FrameLen:]
	}
	return out, nil
}

func decode(f []byte) (model.Color, error) {
	d := model.DelimiterLen
	for i := 0; i < d; i++ {
		if f[i] != model.FrameStart {
			return model.Color{}, fmt.Errorf("%w: start byte %d is %#x", ErrBadFrame, i, f[i])
		}
		if e := f[len(f)-d+i]; e != model.FrameEnd {
			return model.Color{}, fmt.Errorf("%w: end byte %d is %#x", ErrBadFrame, i, e)
		}
	}
	cmd := f[d]
	if cmd&model.CommandBase != model.CommandBase {
		return model.Color{}, fmt.Errorf("%w: command byte %#x", ErrBadFrame, cmd)
	}
	return model.Color{
		Brightness: cmd &^ model.CommandBase,
		B:          f[d+1],
		G:          f[d+2],
		R:          f[d+3],
	}, nil
}
