package main

import (
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-fanshim/fanshim"
	"github.com/coreman2200/funtimes-fanshim/fanshim/fanshimtest"
	"github.com/coreman2200/funtimes-fanshim/model"
	"github.com/coreman2200/funtimes-fanshim/preview"
)

// board is an open device plus whatever has to be torn down with it.
type board struct {
	*fanshim.Dev
	sim     *fanshimtest.Board
	console *preview.Console
}

func (o *rootOpts) openBoard() (*board, error) {
	cfg := o.cfg
	if !cfg.Sim {
		if cfg.Preview {
			log.Warn().Msg("--preview only works with --sim; ignoring")
		}
		d, err := fanshim.Open(cfg.Opts())
		if err != nil {
			return nil, err
		}
		return &board{Dev: d}, nil
	}

	b := &board{sim: fanshimtest.NewBoard()}
	if cfg.Preview {
		b.console = preview.New()
		b.sim.Bus.OnFrame = func(c model.Color) {
			if err := b.console.Show(c); err != nil {
				log.Warn().Err(err).Msg("preview")
			}
		}
	} else {
		b.sim.Bus.OnFrame = func(c model.Color) {
			log.Info().Stringer("led", c).Msg("sim frame")
		}
	}
	d, err := fanshim.New(b.sim.Pins(), cfg.Opts())
	if err != nil {
		return nil, err
	}
	b.Dev = d
	log.Info().Str("dev", d.String()).Msg("using simulated board")
	return b, nil
}

func (b *board) Close() error {
	err := b.Dev.Close()
	if b.console != nil {
		if herr := b.console.Halt(); herr != nil && err == nil {
			err = herr
		}
	}
	return err
}
