package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yaron8/netmonitor/logi"
	"github.com/yaron8/netmonitor/monitor/bootstrap"
	"github.com/yaron8/netmonitor/monitor/config"
)

var (
	configPath string
	port       int
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "netmonitor",
	Short: "Network monitor measuring delay, bandwidth and loss of switch links.",
	Long: `Network monitor polls the switches of an SDN fabric for port counters, ` +
		`sends latency probes over every discovered link and serves the resulting ` +
		`link quality over HTTP and Prometheus.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP API port, overrides the config")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := logi.NewLog(&cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := bootstrap.NewBootstrap(cfg)
	if err != nil {
		return fmt.Errorf("failed to create network monitor bootstrap: %w", err)
	}
	return b.Run(ctx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
