package logi

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once

	fallbackOnce sync.Once
	fallback     *slog.Logger
)

// Config holds the logging configuration
type Config struct {
	// Output is "file" or "stdout"
	// Default: file
	Output string `yaml:"output"`
	// LogDir is the directory where log files will be stored
	// Default: /var/log/netmonitor (or ./logs if not writable)
	LogDir string `yaml:"dir"`
	// LogFileName is the name of the log file
	// Default: netmonitor.log
	LogFileName string `yaml:"file"`
	// Level is one of debug, info, warn, error
	// Default: info
	Level string `yaml:"level"`
}

// NewLog creates or returns the process logger.
// Only the first call configures it; later calls return the same instance.
func NewLog(cfg *Config) (*slog.Logger, error) {
	var initErr error

	once.Do(func() {
		if cfg == nil {
			cfg = &Config{}
		}

		level, err := ParseLevel(cfg.Level)
		if err != nil {
			initErr = err
			return
		}

		var (
			out         io.Writer
			destination string
		)
		switch cfg.Output {
		case "stdout":
			out = os.Stdout
			destination = "stdout"
		case "", "file":
			file, logPath, err := openLogFile(cfg)
			if err != nil {
				initErr = err
				return
			}
			out = file
			destination = logPath
		default:
			initErr = fmt.Errorf("unknown log output %q", cfg.Output)
			return
		}

		logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     level,
			AddSource: false,
		}))

		logger.Info("logger initialized",
			"destination", destination,
			"level", level.String(),
		)
	})

	if initErr != nil {
		return nil, initErr
	}

	return logger, nil
}

// GetLogger returns the process logger. Before NewLog has run (tests, tools) it
// returns a JSON logger on stderr at warn level.
func GetLogger() *slog.Logger {
	if logger != nil {
		return logger
	}

	fallbackOnce.Do(func() {
		fallback = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	})
	return fallback
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

func openLogFile(cfg *Config) (*os.File, string, error) {
	dir := cfg.LogDir
	if dir == "" {
		// /var/log/netmonitor works in containers, ./logs everywhere else
		dir = "/var/log/netmonitor"
		if !isDirWritable(dir) {
			dir = "./logs"
		}
	}

	name := cfg.LogFileName
	if name == "" {
		name = "netmonitor.log"
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	logPath := filepath.Join(dir, name)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}
	return file, logPath, nil
}

// isDirWritable checks if a directory is writable
func isDirWritable(path string) bool {
	if err := os.MkdirAll(path, 0755); err != nil {
		return false
	}

	testFile := filepath.Join(path, ".write_test")
	file, err := os.OpenFile(testFile, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false
	}
	file.Close()
	os.Remove(testFile)
	return true
}
