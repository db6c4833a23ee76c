package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-fanshim/model"
)

// Hardware smoke tests. Each one leaves the LED off.
var demos = map[string]func(ctx context.Context, b *board, step time.Duration) error{
	"rgb":        demoRGB,
	"brightness": demoBrightness,
	"fan":        demoFan,
	"button":     demoButton,
}

func newDemoCmd(o *rootOpts) *cobra.Command {
	var step time.Duration
	cmd := &cobra.Command{
		Use:       "demo rgb|brightness|fan|button",
		Short:     "Run a hardware smoke test",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"rgb", "brightness", "fan", "button"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withBoard(func(b *board) error {
				return runDemo(cmd.Context(), b, args[0], step)
			})
		},
	}
	cmd.Flags().DurationVar(&step, "step", time.Second, "time between changes")
	return cmd
}

// runDemo runs the named demo and turns the LED off afterwards, also when it
// is interrupted.
func runDemo(ctx context.Context, b *board, name string, step time.Duration) error {
	run, ok := demos[name]
	if !ok {
		return fmt.Errorf("unknown demo %q", name)
	}
	log.Info().Str("demo", name).Dur("step", step).Msg("starting")
	err := run(ctx, b, step)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, b.LEDOff())
}

func demoRGB(ctx context.Context, b *board, step time.Duration) error {
	for _, c := range []model.Color{
		model.NewColor(16, 255, 0, 0),
		model.NewColor(16, 0, 255, 0),
		model.NewColor(16, 0, 0, 255),
	} {
		if err := b.LEDOff(); err != nil {
			return err
		}
		if err := pause(ctx, step); err != nil {
			return err
		}
		if err := b.Show(c); err != nil {
			return err
		}
		if err := pause(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func demoBrightness(ctx context.Context, b *board, step time.Duration) error {
	if err := b.LEDOff(); err != nil {
		return err
	}
	for br := uint8(0); br <= model.MaxBrightness; br++ {
		if err := pause(ctx, step); err != nil {
			return err
		}
		if err := b.Color(br, 255, 255, 255); err != nil {
			return err
		}
	}
	return pause(ctx, step)
}

// demoFan toggles the fan with a green LED while it runs and red while it
// is stopped.
func demoFan(ctx context.Context, b *board, step time.Duration) error {
	if err := b.FanOff(); err != nil {
		return err
	}
	if err := b.LEDOff(); err != nil {
		return err
	}
	for i := 0; i < 6; i++ {
		if err := pause(ctx, 5*step); err != nil {
			return err
		}
		var err error
		if i%2 == 0 {
			err = errors.Join(b.FanOn(), b.Color(16, 0, 255, 0))
		} else {
			err = errors.Join(b.FanOff(), b.Color(16, 255, 0, 0))
		}
		if err != nil {
			return err
		}
	}
	return pause(ctx, 5*step)
}

// demoButton lights the LED white while the button line reads high, for ten
// steps.
func demoButton(ctx context.Context, b *board, step time.Duration) error {
	if err := b.LEDOff(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*step)
	defer cancel()

	last := b.ButtonState()
	if last == gpio.High {
		if err := b.Color(16, 255, 255, 255); err != nil {
			return err
		}
	}
	var err error
	perr := poll(ctx, 10*time.Millisecond, func() {
		lv := b.ButtonState()
		if lv == last || err != nil {
			return
		}
		last = lv
		if lv == gpio.High {
			err = b.Color(16, 255, 255, 255)
		} else {
			err = b.LEDOff()
		}
	})
	return errors.Join(err, perr)
}
