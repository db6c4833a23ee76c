package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-fanshim/control"
	"github.com/coreman2200/funtimes-fanshim/model"
	"github.com/coreman2200/funtimes-fanshim/thermal"
)

func (o *rootOpts) withBoard(fn func(b *board) error) error {
	b, err := o.openBoard()
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()
	return fn(b)
}

func newFanCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:       "fan on|off",
		Short:     "Switch the fan",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withBoard(func(b *board) error {
				if args[0] == "on" {
					return b.FanOn()
				}
				return b.FanOff()
			})
		},
	}
}

func parseByte(name, s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not 0..255", name, s)
	}
	return uint8(v), nil
}

func newLEDCmd(o *rootOpts) *cobra.Command {
	led := &cobra.Command{
		Use:   "led",
		Short: "Set the RGB LED",
	}

	set := &cobra.Command{
		Use:   "set <brightness> <red> <green> <blue>",
		Short: "Set the LED; brightness 0..31, above 31 is sent as 1",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [4]uint8
			for i, name := range []string{"brightness", "red", "green", "blue"} {
				n, err := parseByte(name, args[i])
				if err != nil {
					return err
				}
				v[i] = n
			}
			return o.withBoard(func(b *board) error {
				return b.Color(v[0], v[1], v[2], v[3])
			})
		},
	}

	var brightness uint8
	hex := &cobra.Command{
		Use:   "hex <#rrggbb>",
		Short: "Set the LED from a hex color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseHex(brightness, args[0])
			if err != nil {
				return err
			}
			return o.withBoard(func(b *board) error {
				return b.Show(c)
			})
		},
	}
	hex.Flags().Uint8VarP(&brightness, "brightness", "b", 16, "global brightness 0..31")

	off := &cobra.Command{
		Use:   "off",
		Short: "Turn the LED off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withBoard(func(b *board) error {
				return b.LEDOff()
			})
		},
	}

	led.AddCommand(set, hex, off)
	return led
}

func newButtonCmd(o *rootOpts) *cobra.Command {
	var watch bool
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "button",
		Short: "Print the button line level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withBoard(func(b *board) error {
				lv := b.ButtonState()
				fmt.Fprintln(cmd.OutOrStdout(), lv)
				if !watch {
					return nil
				}
				return poll(cmd.Context(), every, func() {
					if n := b.ButtonState(); n != lv {
						lv = n
						fmt.Fprintln(cmd.OutOrStdout(), lv)
					}
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing level changes until interrupted")
	cmd.Flags().DurationVar(&every, "interval", 20*time.Millisecond, "poll interval with --watch")
	return cmd
}

func poll(ctx context.Context, every time.Duration, fn func()) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			fn()
		}
	}
}

func newAutoCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Run the fan from the CPU temperature; the button cycles auto/on/off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := o.cfg
			temp, err := thermal.New(cfg.Thermal.Sysfs, cfg.Thermal.Zone)
			if err != nil {
				return err
			}
			return o.withBoard(func(b *board) error {
				l, err := control.New(b, temp, cfg.Policy(), log.Logger)
				if err != nil {
					return err
				}
				log.Info().
					Float64("on", cfg.Auto.OnThreshold).
					Float64("off", cfg.Auto.OffThreshold).
					Dur("interval", cfg.Auto.Interval).
					Msg("auto fan control")
				return l.Run(cmd.Context())
			})
		},
	}
}

// pause waits d or until ctx is done, whichever is first.
func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
