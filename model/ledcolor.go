package model

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

const (
	MaxBrightness uint8 = 31
	// LowBrightness is what out-of-range brightness values collapse to.
	LowBrightness uint8 = 1

	CommandBase byte = 0xE0
	FrameStart  byte = 0x00
	FrameEnd    byte = 0xFF

	// DelimiterLen is the number of start and end bytes around one LED frame.
	DelimiterLen = 4
	FrameLen     = DelimiterLen + 4 + DelimiterLen
)

const (
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

var ErrBadHex = errors.New("model: color must look like #rrggbb")

// Color is one LED command: a 5-bit global brightness and an RGB triple.
type Color struct {
	Brightness uint8
	R          uint8
	G          uint8
	B          uint8
}

var Off = Color{}

func NewColor(br, r, g, b uint8) Color {
	return Color{Brightness: br, R: r, G: g, B: b}
}

// ClampBrightness passes 0..31 through and maps everything above to 1, not 31.
// The LED vendor's reference driver behaves this way and callers rely on it.
func ClampBrightness(br uint8) uint8 {
	if br > MaxBrightness {
		return LowBrightness
	}
	return br
}

// Command returns the frame header byte: top three bits set, low five bits
// the clamped brightness.
func (c Color) Command() byte {
	return CommandBase + ClampBrightness(c.Brightness)
}

// Frame returns the full wire frame for c. Color bytes go out blue first.
func (c Color) Frame() []byte {
	buf := make([]byte, 0, FrameLen)
	buf = append(buf, StartFrame()...)
	buf = append(buf, c.Command(), c.B, c.G, c.R)
	buf = append(buf, EndFrame()...)
	return buf
}

func StartFrame() []byte {
	return delimiter(FrameStart)
}

func EndFrame() []byte {
	return delimiter(FrameEnd)
}

func delimiter(v byte) []byte {
	d := make([]byte, DelimiterLen)
	for i := range d {
		d[i] = v
	}
	return d
}

// RGB packs the color channels as 0xRRGGBB.
func (c Color) RGB() uint32 {
	return uint32(c.R)<<RED_OFFSET | uint32(c.G)<<GREEN_OFFSET | uint32(c.B)<<BLUE_OFFSET
}

func FromRGB(br uint8, v uint32) Color {
	return Color{
		Brightness: br,
		R:          getcolor(v, RED_OFFSET),
		G:          getcolor(v, GREEN_OFFSET),
		B:          getcolor(v, BLUE_OFFSET),
	}
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & mask) >> off)
}

// ParseHex reads "#rrggbb" (the leading # is optional).
func ParseHex(br uint8, s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrBadHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %v", ErrBadHex, err)
	}
	return FromRGB(br, uint32(v)), nil
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", c.RGB())
}

func (c Color) String() string {
	return fmt.Sprintf("%s@%d", c.Hex(), ClampBrightness(c.Brightness))
}

// ToNRGBA scales the channels by the global brightness, roughly how the LED
// looks to the eye. Used for console previews.
func (c Color) ToNRGBA() color.NRGBA {
	aa := float64(ClampBrightness(c.Brightness)) / float64(MaxBrightness)
	return color.NRGBA{
		R: uint8(float64(c.R) * aa),
		G: uint8(float64(c.G) * aa),
		B: uint8(float64(c.B) * aa),
		A: 255,
	}
}

// Wheel maps h in [0,1) onto the hue circle at full saturation.
func Wheel(br uint8, h float64) Color {
	if h < 0 {
		h = 0
	}
	h *= 6
	c := Color{Brightness: br}
	switch {
	case h < 1.:
		c.R, c.G = 255, uint8(255*h)
	case h < 2.:
		c.R, c.G = uint8(255*(2-h)), 255
	case h < 3.:
		c.G, c.B = 255, uint8(255*(h-2))
	case h < 4.:
		c.G, c.B = uint8(255*(4-h)), 255
	case h < 5.:
		c.R, c.B = uint8(255*(h-4)), 255
	default:
		if h > 6 {
			h = 6
		}
		c.R, c.B = 255, uint8(255*(6-h))
	}
	return c
}
