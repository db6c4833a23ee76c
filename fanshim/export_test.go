package fanshim

import "time"

var WriteByte = (*Dev).writeByte

func SetSpin(d *Dev, f func(time.Duration)) {
	d.spin = f
}
