package fanshimtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-fanshim/model"
)

func clockOut(t *testing.T, b *Board, v byte) {
	t.Helper()
	for bit := 7; bit >= 0; bit-- {
		require.NoError(t, b.Data.Out(gpio.Level(v&(1<<uint(bit)) != 0)))
		require.NoError(t, b.Clock.Out(gpio.High))
		require.NoError(t, b.Clock.Out(gpio.Low))
	}
}

func TestBus_SamplesOnRisingEdge(t *testing.T) {
	b := NewBoard()

	clockOut(t, b, 0x81)
	assert.Equal(t, []byte{0x81}, b.Bus.Bytes())
	assert.Equal(t, 8, b.Bus.Pulses())

	// Data changes while the clock is high are not sampled.
	require.NoError(t, b.Data.Out(gpio.Low))
	require.NoError(t, b.Clock.Out(gpio.High))
	require.NoError(t, b.Data.Out(gpio.High))
	require.NoError(t, b.Clock.Out(gpio.High))
	assert.Len(t, b.Bus.Bits(), 9)
	assert.Equal(t, gpio.Low, b.Bus.Bits()[8])
}

func TestBus_OnFrame(t *testing.T) {
	b := NewBoard()
	var got []model.Color
	b.Bus.OnFrame = func(c model.Color) { got = append(got, c) }

	want := []model.Color{
		model.NewColor(31, 0xFF, 0xFF, 0xFF),
		model.Off,
		model.NewColor(16, 255, 0, 0),
	}
	for _, c := range want {
		for _, v := range c.Frame() {
			clockOut(t, b, v)
		}
	}
	assert.Equal(t, want, got)

	frames, err := b.Frames()
	require.NoError(t, err)
	assert.Equal(t, want, frames)

	b.Bus.Reset()
	assert.Empty(t, b.Bus.Bytes())
	assert.Zero(t, b.Bus.Pulses())
}

func TestDecodeFrames_Malformed(t *testing.T) {
	good := model.NewColor(5, 1, 2, 3).Frame()

	tests := []struct {
		name string
		buf  []byte
	}{
		{"short", good[:7]},
		{"bad start", append([]byte{1}, good[1:]...)},
		{"bad command", append([]byte{0, 0, 0, 0, 0x1F}, good[5:]...)},
		{"bad end", append(append([]byte{}, good[:11]...), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrames(tt.buf)
			assert.ErrorIs(t, err, ErrBadFrame)
		})
	}

	frames, err := DecodeFrames(append(append([]byte{}, good...), good...))
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestBoard_Lines(t *testing.T) {
	b := NewBoard()
	b.SetButton(gpio.Low)
	assert.Equal(t, gpio.Low, b.Button.Read())
	require.NoError(t, b.Fan.Out(gpio.High))
	assert.Equal(t, gpio.High, b.FanLevel())

	p := b.Pins()
	assert.Equal(t, "GPIO14", p.Clock.Name())
	assert.Equal(t, "GPIO17", p.Button.Name())
}
