// Package control runs the board unattended: the fan follows the SoC
// temperature, the LED shows it, and the button overrides the fan.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-fanshim/model"
)

// Device is the part of fanshim.Dev the loop drives.
type Device interface {
	FanOn() error
	FanOff() error
	Show(c model.Color) error
	LEDOff() error
	ButtonState() gpio.Level
}

type TempSource interface {
	Celsius() (float64, error)
}

type Mode int

const (
	Auto Mode = iota
	ForcedOn
	ForcedOff
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case ForcedOn:
		return "on"
	case ForcedOff:
		return "off"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) next() Mode {
	return (m + 1) % 3
}

// Policy holds the thresholds in degrees Celsius.
type Policy struct {
	// The fan turns on at or above OnC and off at or below OffC.
	OnC  float64
	OffC float64

	Interval time.Duration

	// LED hue runs from blue at ColdC to red at HotC.
	Brightness uint8
	ColdC      float64
	HotC       float64
}

var DefaultPolicy = Policy{
	OnC:        65,
	OffC:       55,
	Interval:   2 * time.Second,
	Brightness: 8,
	ColdC:      40,
	HotC:       80,
}

func (p Policy) Validate() error {
	if p.OffC >= p.OnC {
		return fmt.Errorf("control: off threshold %.1f must be below on threshold %.1f", p.OffC, p.OnC)
	}
	if p.ColdC >= p.HotC {
		return fmt.Errorf("control: cold %.1f must be below hot %.1f", p.ColdC, p.HotC)
	}
	if p.Interval <= 0 {
		return errors.New("control: interval must be positive")
	}
	if p.Brightness > model.MaxBrightness {
		return fmt.Errorf("control: brightness %d above %d", p.Brightness, model.MaxBrightness)
	}
	return nil
}

// Loop polls on the caller's goroutine; it never spawns one.
type Loop struct {
	dev    Device
	temp   TempSource
	policy Policy
	log    zerolog.Logger

	mode    Mode
	auto    bool // hysteresis state
	fan     *bool
	led     *model.Color
	idle    gpio.Level
	pressed bool
	started bool
}

func New(dev Device, temp TempSource, p Policy, log zerolog.Logger) (*Loop, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Loop{dev: dev, temp: temp, policy: p, log: log}, nil
}

func (l *Loop) Mode() Mode {
	return l.mode
}

// Fan reports the last fan state written.
func (l *Loop) Fan() bool {
	return l.fan != nil && *l.fan
}

// Step performs one poll.
func (l *Loop) Step() error {
	l.pollButton()

	t, err := l.temp.Celsius()
	if err != nil {
		return err
	}
	switch {
	case t >= l.policy.OnC:
		l.auto = true
	case t <= l.policy.OffC:
		l.auto = false
	}

	want := l.auto
	switch l.mode {
	case ForcedOn:
		want = true
	case ForcedOff:
		want = false
	}
	if err := l.setFan(want); err != nil {
		return err
	}
	return l.setLED(l.indicator(t))
}

// pollButton counts a press each time the line leaves the level it had on
// the first poll. Polarity depends on board wiring, so it is not assumed.
func (l *Loop) pollButton() {
	lv := l.dev.ButtonState()
	if !l.started {
		l.started = true
		l.idle = lv
		return
	}
	down := lv != l.idle
	if down && !l.pressed {
		l.mode = l.mode.next()
		l.log.Info().Stringer("mode", l.mode).Msg("button pressed")
	}
	l.pressed = down
}

func (l *Loop) indicator(t float64) model.Color {
	switch l.mode {
	case ForcedOn:
		return model.NewColor(l.policy.Brightness, 255, 255, 255)
	case ForcedOff:
		return model.Off
	}
	f := (t - l.policy.ColdC) / (l.policy.HotC - l.policy.ColdC)
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	// Blue sits at 4/6 on the wheel, red at 0.
	return model.Wheel(l.policy.Brightness, (1-f)*4/6)
}

func (l *Loop) setFan(on bool) error {
	if l.fan != nil && *l.fan == on {
		return nil
	}
	var err error
	if on {
		err = l.dev.FanOn()
	} else {
		err = l.dev.FanOff()
	}
	if err != nil {
		return err
	}
	l.fan = &on
	l.log.Info().Bool("fan", on).Stringer("mode", l.mode).Msg("fan switched")
	return nil
}

func (l *Loop) setLED(c model.Color) error {
	if l.led != nil && *l.led == c {
		return nil
	}
	if err := l.dev.Show(c); err != nil {
		return err
	}
	l.led = &c
	l.log.Debug().Stringer("led", c).Msg("led updated")
	return nil
}

// Run steps every Interval until ctx is done or a step fails. On the way out
// the LED is turned off and the fan left on.
func (l *Loop) Run(ctx context.Context) error {
	err := l.run(ctx)
	if err != nil {
		l.log.Error().Err(err).Msg("control loop stopped; leaving fan on")
	}
	return errors.Join(err, l.dev.LEDOff(), l.dev.FanOn())
}

func (l *Loop) run(ctx context.Context) error {
	ticker := time.NewTicker(l.policy.Interval)
	defer ticker.Stop()

	if err := l.Step(); err != nil {
		return err
	}
	for {
		select {
		case <-ticker.C:
			if err := l.Step(); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
