package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Second, cfg.Collector.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Collector.ProbeInterval)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, 4, cfg.Emulator.Switches)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NETMON_PORT", "9090")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("PROBE_INTERVAL", "2s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_OUTPUT", "stdout")

	cfg := NewConfig()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Collector.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Collector.ProbeInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
}

func TestNewConfig_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("NETMON_PORT", "not-a-port")
	t.Setenv("POLL_INTERVAL", "often")

	cfg := NewConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Second, cfg.Collector.PollInterval)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netmonitor.yaml")
	data := `
port: 7000
collector:
  pollInterval: 500ms
redis:
  enabled: true
  publishInterval: 1s
emulator:
  switches: 6
  linkDelay: 5ms
log:
  output: stdout
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Collector.PollInterval)
	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Collector.ProbeInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Second, cfg.Redis.PublishInterval)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 6, cfg.Emulator.Switches)
	assert.Equal(t, 5*time.Millisecond, cfg.Emulator.LinkDelay)
	assert.Equal(t, time.Millisecond, cfg.Emulator.ControlDelay)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netmonitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\n"), 0644))
	t.Setenv("NETMON_PORT", "7001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1, 2"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("collector:\n  pollInterval: 0s\n"), 0644))
	_, err = Load(invalid)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"no probe interval", func(c *Config) { c.Collector.ProbeInterval = 0 }},
		{"redis without publish interval", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.PublishInterval = 0
		}},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"single switch", func(c *Config) { c.Emulator.Switches = 1 }},
		{"error rate of one", func(c *Config) { c.Emulator.ErrorRate = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
