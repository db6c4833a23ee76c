// Package preview draws the LED on the terminal when there is no board.
package preview

import (
	"fmt"
	"image"

	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-fanshim/model"
)

// Console renders one ANSI pixel per LED.
type Console struct {
	drawer *screen.Dev
	last   model.Color
}

func New() *Console {
	return &Console{drawer: screen.New(1)}
}

// Image returns c as a one pixel image, scaled by its brightness.
func Image(c model.Color) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	im.SetNRGBA(0, 0, c.ToNRGBA())
	return im
}

func (p *Console) Show(c model.Color) error {
	p.last = c
	if err := p.drawer.Draw(p.drawer.Bounds(), Image(c), image.Point{}); err != nil {
		return err
	}
	fmt.Printf(" %s\n", c)
	return nil
}

func (p *Console) Last() model.Color {
	return p.last
}

func (p *Console) Halt() error {
	return p.drawer.Halt()
}
