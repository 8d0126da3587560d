package config

import (
	"fmt"
	"time"
)

// Config describes the emulated switch fabric: a chain of switches where switch i
// port 2 is wired to switch i+1 port 1.
type Config struct {
	Switches      int           `yaml:"switches"`      // number of switches in the chain
	LinkDelay     time.Duration `yaml:"linkDelay"`     // one-way wire delay per link
	ControlDelay  time.Duration `yaml:"controlDelay"`  // controller <-> switch one-way delay
	BandwidthMbps float64       `yaml:"bandwidthMbps"` // mean traffic per port
	ErrorRate     float64       `yaml:"errorRate"`     // fraction of packets counted as errors
	Seed          int64         `yaml:"seed"`          // random seed, 0 means time based
}

func NewConfig() *Config {
	return &Config{
		Switches:      4,
		LinkDelay:     2 * time.Millisecond,
		ControlDelay:  1 * time.Millisecond,
		BandwidthMbps: 100,
		ErrorRate:     0.001,
	}
}

func (c *Config) Validate() error {
	if c.Switches < 2 {
		return fmt.Errorf("emulator needs at least 2 switches, got %d", c.Switches)
	}
	if c.LinkDelay < 0 || c.ControlDelay < 0 {
		return fmt.Errorf("emulator delays must not be negative")
	}
	if c.ErrorRate < 0 || c.ErrorRate >= 1 {
		return fmt.Errorf("emulator error rate must be in [0, 1), got %v", c.ErrorRate)
	}
	return nil
}
