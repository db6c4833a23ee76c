package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-fanshim/config"
)

type rootOpts struct {
	configPath string
	sim        bool
	preview    bool
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	o := &rootOpts{}
	root := &cobra.Command{
		Use:           "fanshim",
		Short:         "Control the Fan SHIM LED, fan and button",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}

	root.SetGlobalNormalizationFunc(snakeToKebab)
	f := root.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "config.yaml", "path to config.yaml")
	f.BoolVar(&o.sim, "sim", false, "use a simulated board instead of GPIO")
	f.BoolVar(&o.preview, "preview", false, "draw the LED on the console (with --sim)")
	f.StringVar(&o.logLevel, "log-level", "", "debug | info | warn | error (overrides config)")

	root.AddCommand(
		newFanCmd(o),
		newLEDCmd(o),
		newButtonCmd(o),
		newAutoCmd(o),
		newDemoCmd(o),
	)
	return root
}

// snakeToKebab lets flags be spelled like their config keys (--log_level).
func snakeToKebab(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// load reads the config file and applies flag overrides. A missing file is
// not an error.
func (o *rootOpts) load(cmd *cobra.Command) error {
	cfg := config.Default()
	if c, err := config.Load(o.configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		log.Debug().Str("path", o.configPath).Msg("no config file; using defaults")
	} else {
		cfg = c
	}

	f := cmd.Flags()
	if f.Changed("sim") {
		cfg.Sim = o.sim
	}
	if f.Changed("preview") {
		cfg.Preview = o.preview
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	o.cfg = cfg
	return nil
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("fanshim")
	}
}
