package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-fanshim/control"
	"github.com/coreman2200/funtimes-fanshim/fanshim"
	"github.com/coreman2200/funtimes-fanshim/thermal"
)

type AutoCfg struct {
	OnThreshold  float64       `yaml:"on_threshold"`  // °C, fan on at or above
	OffThreshold float64       `yaml:"off_threshold"` // °C, fan off at or below
	Interval     time.Duration `yaml:"interval"`
	Brightness   uint8         `yaml:"brightness"` // 0..31
	Cold         float64       `yaml:"cold"`       // °C shown as blue
	Hot          float64       `yaml:"hot"`        // °C shown as red
}

type ThermalCfg struct {
	Sysfs string `yaml:"sysfs"` // e.g. /sys
	Zone  string `yaml:"zone"`  // e.g. cpu-thermal
}

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Sim      bool          `yaml:"sim"`     // simulated board, no GPIO
	Preview  bool          `yaml:"preview"` // draw the LED on the console
	BitDelay time.Duration `yaml:"bit_delay"`

	Auto    AutoCfg    `yaml:"auto"`
	Thermal ThermalCfg `yaml:"thermal"`
}

func Default() *Config {
	p := control.DefaultPolicy
	return &Config{
		LogLevel: "info",
		BitDelay: fanshim.DefaultOpts.BitDelay,
		Auto: AutoCfg{
			OnThreshold:  p.OnC,
			OffThreshold: p.OffC,
			Interval:     p.Interval,
			Brightness:   p.Brightness,
			Cold:         p.ColdC,
			Hot:          p.HotC,
		},
		Thermal: ThermalCfg{
			Sysfs: thermal.DefaultMount,
			Zone:  thermal.DefaultZone,
		},
	}
}

// Load reads path over the defaults; keys absent from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Policy() control.Policy {
	return control.Policy{
		OnC:        c.Auto.OnThreshold,
		OffC:       c.Auto.OffThreshold,
		Interval:   c.Auto.Interval,
		Brightness: c.Auto.Brightness,
		ColdC:      c.Auto.Cold,
		HotC:       c.Auto.Hot,
	}
}

func (c *Config) Opts() *fanshim.Opts {
	return &fanshim.Opts{BitDelay: c.BitDelay}
}

func (c *Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.LogLevel)
}

func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.BitDelay < 0 {
		return fmt.Errorf("bit_delay %s is negative", c.BitDelay)
	}
	return c.Policy().Validate()
}
