package fanshim

import (
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-fanshim/model"
)

// Color sets the LED. brightness is 0..31; anything larger is sent as 1.
// The whole frame is clocked out before Color returns.
func (d *Dev) Color(brightness, r, g, b uint8) error {
	return d.Show(model.NewColor(brightness, r, g, b))
}

// LEDOff sends a full zero frame, the same as Color(0, 0, 0, 0).
func (d *Dev) LEDOff() error {
	return d.Show(model.Off)
}

// Show clocks out one frame for c: start, command, blue, green, red, end.
func (d *Dev) Show(c model.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.sof(); err != nil {
		return err
	}
	for _, v := range []byte{c.Command(), c.B, c.G, c.R} {
		if err := d.writeByte(v); err != nil {
			return err
		}
	}
	return d.eof()
}

func (d *Dev) sof() error {
	return d.repeat(model.FrameStart, model.DelimiterLen)
}

// eof is sized for a single LED; longer chains would need more end bytes.
func (d *Dev) eof() error {
	return d.repeat(model.FrameEnd, model.DelimiterLen)
}

func (d *Dev) repeat(v byte, n int) error {
	for i := 0; i < n; i++ {
		if err := d.writeByte(v); err != nil {
			return err
		}
	}
	return nil
}

// writeByte shifts v out MSB first. The LED latches data on the rising edge.
func (d *Dev) writeByte(v byte) error {
	for bit := 7; bit >= 0; bit-- {
		if err := d.out(d.dat, gpio.Level(v&(1<<uint(bit)) != 0)); err != nil {
			return err
		}
		if err := d.out(d.clk, gpio.High); err != nil {
			return err
		}
		d.spin(d.delay)
		if err := d.out(d.clk, gpio.Low); err != nil {
			return err
		}
		d.spin(d.delay)
	}
	return nil
}
