package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/funtimes-fanshim/fanshim"
	"github.com/coreman2200/funtimes-fanshim/fanshim/fanshimtest"
	"github.com/coreman2200/funtimes-fanshim/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--sim", "--log-level", "error", "--config", cfg}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands_Sim(t *testing.T) {
	tests := [][]string{
		{"fan", "on"},
		{"fan", "off"},
		{"led", "set", "16", "255", "0", "0"},
		{"led", "set", "200", "1", "2", "3"},
		{"led", "hex", "#00ff00", "-b", "4"},
		{"led", "off"},
		{"demo", "rgb", "--step", "1ms"},
		{"demo", "brightness", "--step", "1ms"},
		{"demo", "fan", "--step", "1ms"},
		{"demo", "button", "--step", "1ms"},
	}
	for _, args := range tests {
		t.Run(args[0]+"_"+args[1], func(t *testing.T) {
			_, err := run(t, args...)
			assert.NoError(t, err)
		})
	}
}

func simBoard(t *testing.T) *board {
	t.Helper()
	b := &board{sim: fanshimtest.NewBoard()}
	d, err := fanshim.New(b.sim.Pins(), nil)
	require.NoError(t, err)
	b.Dev = d
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestDemos_EndState(t *testing.T) {
	white := model.NewColor(16, 255, 255, 255)
	red := model.NewColor(16, 255, 0, 0)
	green := model.NewColor(16, 0, 255, 0)
	blue := model.NewColor(16, 0, 0, 255)

	tests := []struct {
		name   string
		frames []model.Color
		fan    gpio.Level
	}{
		{"rgb", []model.Color{model.Off, red, model.Off, green, model.Off, blue, model.Off}, gpio.Low},
		{"fan", []model.Color{model.Off, green, red, green, red, green, red, model.Off}, gpio.Low},
		// The button line idles high with its pull-up.
		{"button", []model.Color{model.Off, white, model.Off}, gpio.Low},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := simBoard(t)
			require.NoError(t, runDemo(context.Background(), b, tt.name, time.Millisecond))

			frames, err := b.sim.Frames()
			require.NoError(t, err)
			assert.Equal(t, tt.frames, frames)
			assert.Equal(t, tt.fan, b.sim.FanLevel())
		})
	}
}

func TestDemoBrightness_Ramp(t *testing.T) {
	b := simBoard(t)
	require.NoError(t, runDemo(context.Background(), b, "brightness", time.Millisecond))

	frames, err := b.sim.Frames()
	require.NoError(t, err)
	require.Len(t, frames, 1+int(model.MaxBrightness)+1+1)
	assert.Equal(t, model.Off, frames[0])
	for i, c := range frames[1 : len(frames)-1] {
		assert.Equal(t, model.NewColor(uint8(i), 255, 255, 255), c)
	}
	assert.Equal(t, model.Off, frames[len(frames)-1])
}

func TestDemo_LeavesRunningFanOff(t *testing.T) {
	b := simBoard(t)
	require.NoError(t, b.FanOn())
	require.NoError(t, runDemo(context.Background(), b, "fan", time.Millisecond))
	assert.Equal(t, gpio.Low, b.sim.FanLevel())
}

func TestDemo_Unknown(t *testing.T) {
	assert.Error(t, runDemo(context.Background(), simBoard(t), "disco", time.Millisecond))
}

func TestCommands_BadArgs(t *testing.T) {
	tests := [][]string{
		{"fan", "sideways"},
		{"fan"},
		{"led", "set", "1", "2", "3"},
		{"led", "set", "1", "2", "3", "256"},
		{"led", "hex", "#zz0000"},
		{"demo", "disco"},
	}
	for _, args := range tests {
		_, err := run(t, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestButton_Sim(t *testing.T) {
	out, err := run(t, "button")
	require.NoError(t, err)
	assert.Contains(t, []string{"High\n", "Low\n"}, out)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sim: true\nlog_level: error\n"), 0o644))

	root := newRootCmd()
	root.SetArgs([]string{"--config", path, "fan", "on"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("log_level: shouty\n"), 0o644))
	root = newRootCmd()
	root.SetArgs([]string{"--config", path, "fan", "on"})
	assert.Error(t, root.ExecuteContext(context.Background()))
}

func TestSnakeCaseFlags(t *testing.T) {
	_, err := run(t, "--log_level", "warn", "fan", "off")
	assert.NoError(t, err)
}
