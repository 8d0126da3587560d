package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	emulator "github.com/yaron8/netmonitor/generator/config"
	"github.com/yaron8/netmonitor/logi"
)

type Config struct {
	Port      int             `yaml:"port"` // HTTP API port
	Collector CollectorConfig `yaml:"collector"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       logi.Config     `yaml:"log"`
	Emulator  emulator.Config `yaml:"emulator"`
}

type CollectorConfig struct {
	PollInterval  time.Duration `yaml:"pollInterval"`  // port stats requests
	ProbeInterval time.Duration `yaml:"probeInterval"` // latency probes
}

type RedisConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	TTL             time.Duration `yaml:"ttl"`
	PublishInterval time.Duration `yaml:"publishInterval"`
}

// NewConfig returns the defaults with environment overrides applied.
func NewConfig() *Config {
	cfg := defaultConfig()
	cfg.applyEnv()
	return cfg
}

// Load reads a YAML file over the defaults, then applies environment overrides.
// An empty path behaves like NewConfig.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Collector.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Collector.PollInterval)
	}
	if c.Collector.ProbeInterval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %s", c.Collector.ProbeInterval)
	}
	if c.Redis.Enabled && c.Redis.PublishInterval <= 0 {
		return fmt.Errorf("redis publish interval must be positive, got %s", c.Redis.PublishInterval)
	}
	if _, err := logi.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return c.Emulator.Validate()
}

func defaultConfig() *Config {
	return &Config{
		Port: 8080,
		Collector: CollectorConfig{
			PollInterval:  1 * time.Second,
			ProbeInterval: 5 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:         false,
			Host:            "localhost",
			Port:            6379,
			TTL:             30 * time.Second,
			PublishInterval: 5 * time.Second,
		},
		Log: logi.Config{
			Output: "file",
			Level:  "info",
		},
		Emulator: *emulator.NewConfig(),
	}
}

func (c *Config) applyEnv() {
	// Read HTTP port from environment variable
	if port, ok := envInt("NETMON_PORT"); ok {
		c.Port = port
	}

	if d, ok := envDuration("POLL_INTERVAL"); ok {
		c.Collector.PollInterval = d
	}
	if d, ok := envDuration("PROBE_INTERVAL"); ok {
		c.Collector.ProbeInterval = d
	}

	// Redis publishing is opt-in
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Redis.Enabled = enabled
		}
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port, ok := envInt("REDIS_PORT"); ok {
		c.Redis.Port = port
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		c.Log.LogDir = dir
	}
	if out := os.Getenv("LOG_OUTPUT"); out != "" {
		c.Log.Output = out
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
