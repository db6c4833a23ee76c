package fanshim

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/pin"
)

// BCM numbers of the lines the board is wired to. Not configurable.
const (
	ClockPin  = 14
	DataPin   = 15
	ButtonPin = 17
	FanPin    = 18
)

// Pins are the four lines a Dev drives.
type Pins struct {
	Clock  gpio.PinOut
	Data   gpio.PinOut
	Button gpio.PinIn
	Fan    gpio.PinOut
}

func pinName(n int) string {
	return fmt.Sprintf("GPIO%d", n)
}

// DefaultPins resolves the board's fixed lines in the periph registry. The
// host drivers must already be loaded.
func DefaultPins() (Pins, error) {
	var p Pins
	var err error
	if p.Clock, err = lookup(ClockPin); err != nil {
		return Pins{}, err
	}
	if p.Data, err = lookup(DataPin); err != nil {
		return Pins{}, err
	}
	if p.Button, err = lookup(ButtonPin); err != nil {
		return Pins{}, err
	}
	if p.Fan, err = lookup(FanPin); err != nil {
		return Pins{}, err
	}
	return p, nil
}

func lookup(n int) (gpio.PinIO, error) {
	name := pinName(n)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, &AcquisitionError{Pin: name, Err: ErrPinNotFound}
	}
	return p, nil
}

// Pins are process-wide; a line held by one open Dev can't be claimed by
// another until it is closed.
var (
	claimMu sync.Mutex
	claimed = map[pin.Pin]bool{}
)

func claim(p pin.Pin) error {
	claimMu.Lock()
	defer claimMu.Unlock()
	if claimed[p] {
		return ErrPinBusy
	}
	claimed[p] = true
	return nil
}

func release(ps ...pin.Pin) {
	claimMu.Lock()
	defer claimMu.Unlock()
	for _, p := range ps {
		delete(claimed, p)
	}
}
